package model

import (
	"time"
)

// ProjectModel 项目读模型
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Name        string `json:"name" gorm:"not null"`
	Logo        string `json:"logo"`
	Description string `json:"description" gorm:"type:text"`
	Website     string `json:"website"`

	// 众筹信息
	Currency       string `json:"currency" gorm:"not null"`
	RequiredFunds  int64  `json:"required_funds" gorm:"not null"`
	RaisedFunds    int64  `json:"raised_funds" gorm:"default:0"`
	WithdrawnFunds int64  `json:"withdrawn_funds" gorm:"default:0"`
	RefundedFunds  int64  `json:"refunded_funds" gorm:"default:0"`

	// 状态
	Status ProjectStatus `json:"status" gorm:"default:'pending'"`

	// 创建者信息
	Initiator     string `json:"initiator" gorm:"not null;index"`
	CreatedHeight int64  `json:"created_height"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusPending   ProjectStatus = "pending"   // 待审批
	ProjectStatusApproved  ProjectStatus = "approved"  // 已批准
	ProjectStatusCancelled ProjectStatus = "cancelled" // 已取消
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}

// ProjectStatusOf 由引擎项目推导读模型状态
func ProjectStatusOf(p Project) ProjectStatus {
	switch {
	case p.Cancelled:
		return ProjectStatusCancelled
	case p.ApprovedForFunding:
		return ProjectStatusApproved
	default:
		return ProjectStatusPending
	}
}

// NewProjectModel 将引擎项目快照转换为读模型
func NewProjectModel(p Project) ProjectModel {
	return ProjectModel{
		Id:             int64(p.Key),
		Name:           p.Name,
		Logo:           p.Logo,
		Description:    p.Description,
		Website:        p.Website,
		Currency:       string(p.Currency),
		RequiredFunds:  int64(p.RequiredFunds),
		RaisedFunds:    int64(p.RaisedFunds),
		WithdrawnFunds: int64(p.WithdrawnFunds),
		RefundedFunds:  int64(p.RefundedFunds),
		Status:         ProjectStatusOf(p),
		Initiator:      p.Initiator.Hex(),
		CreatedHeight:  int64(p.CreatedAt),
	}
}
