package logic

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hbulgarini/imbue/internal/model"
)

// ContributeRecordLogic 贡献记录业务逻辑
type ContributeRecordLogic struct {
	db *gorm.DB
}

// NewContributeRecordLogic 创建贡献记录业务逻辑
func NewContributeRecordLogic(db *gorm.DB) *ContributeRecordLogic {
	return &ContributeRecordLogic{db: db}
}

// CreateContributeRecord 创建贡献记录，同一事件重复写入时忽略
func (c *ContributeRecordLogic) CreateContributeRecord(record *model.ContributeRecordModel) error {
	if err := c.validateContributeRecord(record); err != nil {
		return err
	}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(record).Error
	return errors.Wrapf(err, "create contribution record for event %s", record.EventId)
}

// GetProjectContributeRecords 获取项目贡献记录
func (c *ContributeRecordLogic) GetProjectContributeRecords(projectId int64, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	return c.list(c.db.Where("project_id = ?", projectId), page, pageSize)
}

// GetAccountContributeRecords 获取账户的贡献记录
func (c *ContributeRecordLogic) GetAccountContributeRecords(address string, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	return c.list(c.db.Where("address = ?", address), page, pageSize)
}

func (c *ContributeRecordLogic) list(query *gorm.DB, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	var records []model.ContributeRecordModel
	var total int64

	if err := query.Model(&model.ContributeRecordModel{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count contribution records")
	}

	offset, limit := paginate(page, pageSize)
	if err := query.Offset(offset).
		Limit(limit).
		Order("block_num DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list contribution records")
	}
	return records, total, nil
}

// GetContributeStats 获取贡献统计信息
func (c *ContributeRecordLogic) GetContributeStats(projectId int64) (map[string]interface{}, error) {
	var stats struct {
		TotalContributions int64
		TotalAmount        int64
		UniqueContributors int64
	}

	err := c.db.Model(&model.ContributeRecordModel{}).
		Select("COUNT(*) AS total_contributions, COALESCE(SUM(amount), 0) AS total_amount, COUNT(DISTINCT address) AS unique_contributors").
		Where("project_id = ?", projectId).
		Scan(&stats).Error
	if err != nil {
		return nil, errors.Wrapf(err, "contribution stats of project %d", projectId)
	}

	average := float64(0)
	if stats.TotalContributions > 0 {
		average = float64(stats.TotalAmount) / float64(stats.TotalContributions)
	}

	return map[string]interface{}{
		"total_contributions": stats.TotalContributions,
		"total_amount":        stats.TotalAmount,
		"unique_contributors": stats.UniqueContributors,
		"average_amount":      average,
	}, nil
}

// validateContributeRecord 验证贡献数据
func (c *ContributeRecordLogic) validateContributeRecord(record *model.ContributeRecordModel) error {
	if record.Amount <= 0 {
		return errors.New("贡献金额必须大于0")
	}
	if record.Address == "" {
		return errors.New("贡献者地址不能为空")
	}
	if record.EventId == "" {
		return errors.New("事件编号不能为空")
	}
	return nil
}
