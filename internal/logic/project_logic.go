package logic

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hbulgarini/imbue/internal/model"
)

// ErrNotFound 读模型中没有对应记录
var ErrNotFound = errors.New("record not found")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// paginate 规范化分页参数，page 从1开始
func paginate(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return (page - 1) * pageSize, pageSize
}

// ProjectLogic 项目读模型
type ProjectLogic struct {
	db *gorm.DB
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// UpsertProject 写入项目快照，已存在时只覆盖资金与状态
func (p *ProjectLogic) UpsertProject(project *model.ProjectModel) error {
	err := p.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"raised_funds", "withdrawn_funds", "refunded_funds", "status", "updated_at",
		}),
	}).Create(project).Error
	return errors.Wrapf(err, "upsert project %d", project.Id)
}

// GetProjects 获取项目列表，status 为空时不过滤
func (p *ProjectLogic) GetProjects(status model.ProjectStatus, page, pageSize int) ([]model.ProjectModel, int64, error) {
	var projects []model.ProjectModel
	var total int64

	query := p.db.Model(&model.ProjectModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count projects")
	}

	offset, limit := paginate(page, pageSize)
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&projects).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list projects")
	}
	return projects, total, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := p.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "project %d", id)
		}
		return nil, errors.Wrapf(err, "get project %d", id)
	}
	return &project, nil
}

// GetProjectStats 获取项目统计信息
func (p *ProjectLogic) GetProjectStats(id int64) (map[string]interface{}, error) {
	var stats struct {
		ProjectId         int64
		RequiredFunds     int64
		RaisedFunds       int64
		WithdrawnFunds    int64
		RefundedFunds     int64
		Status            string
		ContributorCount  int64
		ContributionCount int64
		WithdrawalCount   int64
	}

	err := p.db.Raw(`
		SELECT
			p.id AS project_id,
			p.required_funds,
			p.raised_funds,
			p.withdrawn_funds,
			p.refunded_funds,
			p.status,
			COALESCE(c.contributor_count, 0) AS contributor_count,
			COALESCE(c.contribution_count, 0) AS contribution_count,
			COALESCE(w.withdrawal_count, 0) AS withdrawal_count
		FROM project p
		LEFT JOIN (
			SELECT project_id, COUNT(DISTINCT address) AS contributor_count, COUNT(*) AS contribution_count
			FROM contribute_record
			WHERE project_id = ?
			GROUP BY project_id
		) c ON p.id = c.project_id
		LEFT JOIN (
			SELECT project_id, COUNT(*) AS withdrawal_count
			FROM withdrawal_record
			WHERE project_id = ?
			GROUP BY project_id
		) w ON p.id = w.project_id
		WHERE p.id = ?
	`, id, id, id).Scan(&stats).Error
	if err != nil {
		return nil, errors.Wrapf(err, "project %d stats", id)
	}
	if stats.Status == "" {
		return nil, errors.Wrapf(ErrNotFound, "project %d", id)
	}

	completion := float64(0)
	if stats.RequiredFunds > 0 {
		completion = float64(stats.RaisedFunds) / float64(stats.RequiredFunds) * 100
	}

	return map[string]interface{}{
		"project_id":            stats.ProjectId,
		"required_funds":        stats.RequiredFunds,
		"raised_funds":          stats.RaisedFunds,
		"withdrawn_funds":       stats.WithdrawnFunds,
		"refunded_funds":        stats.RefundedFunds,
		"completion_percentage": completion,
		"contributor_count":     stats.ContributorCount,
		"contribution_count":    stats.ContributionCount,
		"withdrawal_count":      stats.WithdrawalCount,
		"status":                stats.Status,
	}, nil
}

// GetAllProjectStats 获取所有项目的统计信息
func (p *ProjectLogic) GetAllProjectStats() (map[string]interface{}, error) {
	var rows []struct {
		Status string
		Count  int64
		Raised int64
	}
	err := p.db.Model(&model.ProjectModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(raised_funds), 0) AS raised").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "project stats by status")
	}

	var totalContributors int64
	if err := p.db.Model(&model.ContributeRecordModel{}).
		Distinct("address").
		Count(&totalContributors).Error; err != nil {
		return nil, errors.Wrap(err, "count contributors")
	}

	stats := map[string]interface{}{
		"totalProjects":     int64(0),
		"pendingProjects":   int64(0),
		"approvedProjects":  int64(0),
		"cancelledProjects": int64(0),
		"totalRaised":       int64(0),
		"totalInvestors":    totalContributors,
	}
	var total, raised int64
	for _, r := range rows {
		total += r.Count
		raised += r.Raised
		switch model.ProjectStatus(r.Status) {
		case model.ProjectStatusPending:
			stats["pendingProjects"] = r.Count
		case model.ProjectStatusApproved:
			stats["approvedProjects"] = r.Count
		case model.ProjectStatusCancelled:
			stats["cancelledProjects"] = r.Count
		}
	}
	stats["totalProjects"] = total
	stats["totalRaised"] = raised
	return stats, nil
}
