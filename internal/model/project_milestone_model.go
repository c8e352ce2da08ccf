package model

import (
	"time"
)

// ProjectMilestoneModel 项目里程碑读模型
type ProjectMilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId    int64           `json:"project_id" gorm:"not null;uniqueIndex:idx_project_milestone,priority:1"`
	MilestoneKey int64           `json:"milestone_key" gorm:"not null;uniqueIndex:idx_project_milestone,priority:2"`
	Name         string          `json:"name" gorm:"not null"`
	Percentage   int64           `json:"percentage" gorm:"not null"`
	Status       MilestoneStatus `json:"status" gorm:"default:'pending'"`
	RoundKey     int64           `json:"round_key"` // 最近一次投票轮
}

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneStatusPending  MilestoneStatus = "pending"  // 未提交
	MilestoneStatusVoting   MilestoneStatus = "voting"   // 投票中
	MilestoneStatusApproved MilestoneStatus = "approved" // 已批准
	MilestoneStatusRejected MilestoneStatus = "rejected" // 被否决，可重新提交
)

// TableName 自定义表名
func (ProjectMilestoneModel) TableName() string {
	return "project_milestone"
}

// NewProjectMilestoneModels 将项目里程碑转换为读模型，已批准的标记为 approved
func NewProjectMilestoneModels(p Project) []ProjectMilestoneModel {
	milestones := make([]ProjectMilestoneModel, 0, len(p.Milestones))
	for _, m := range p.Milestones {
		status := MilestoneStatusPending
		if m.IsApproved {
			status = MilestoneStatusApproved
		}
		milestones = append(milestones, ProjectMilestoneModel{
			ProjectId:    int64(p.Key),
			MilestoneKey: int64(m.Key),
			Name:         m.Name,
			Percentage:   int64(m.PercentageToUnlock),
			Status:       status,
		})
	}
	return milestones
}
