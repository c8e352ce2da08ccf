package logic

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hbulgarini/imbue/internal/model"
)

// MilestoneLogic 里程碑读模型
type MilestoneLogic struct {
	db *gorm.DB
}

// NewMilestoneLogic 创建里程碑业务逻辑
func NewMilestoneLogic(db *gorm.DB) *MilestoneLogic {
	return &MilestoneLogic{db: db}
}

// CreateMilestones 写入项目的全部里程碑，已存在的保持不变
func (m *MilestoneLogic) CreateMilestones(milestones []model.ProjectMilestoneModel) error {
	if len(milestones) == 0 {
		return nil
	}
	err := m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "milestone_key"}},
		DoNothing: true,
	}).Create(&milestones).Error
	return errors.Wrapf(err, "create milestones of project %d", milestones[0].ProjectId)
}

// UpdateMilestoneStatus 更新里程碑状态，roundKey 为 nil 时保留原投票轮
func (m *MilestoneLogic) UpdateMilestoneStatus(projectId, milestoneKey int64, status model.MilestoneStatus, roundKey *int64) error {
	updates := map[string]interface{}{"status": status}
	if roundKey != nil {
		updates["round_key"] = *roundKey
	}

	result := m.db.Model(&model.ProjectMilestoneModel{}).
		Where("project_id = ? AND milestone_key = ?", projectId, milestoneKey).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "update milestone %d of project %d", milestoneKey, projectId)
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "milestone %d of project %d", milestoneKey, projectId)
	}
	return nil
}

// GetProjectMilestones 按编号顺序获取项目里程碑
func (m *MilestoneLogic) GetProjectMilestones(projectId int64) ([]model.ProjectMilestoneModel, error) {
	var milestones []model.ProjectMilestoneModel
	if err := m.db.Where("project_id = ?", projectId).
		Order("milestone_key ASC").
		Find(&milestones).Error; err != nil {
		return nil, errors.Wrapf(err, "milestones of project %d", projectId)
	}
	return milestones, nil
}
