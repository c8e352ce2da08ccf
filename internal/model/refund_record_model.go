package model

import (
	"time"
)

// RefundRecordModel 退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId    int64        `json:"project_id" gorm:"not null;index"`
	Amount       int64        `json:"amount" gorm:"not null"`
	Currency     string       `json:"currency" gorm:"not null"`
	Address      string       `json:"address" gorm:"not null"`
	EventId      string       `json:"event_id" gorm:"not null;index"`
	BlockNum     int64        `json:"block_num"`
	RefundReason RefundReason `json:"refund_reason"`
}

// RefundReason 退款原因
type RefundReason string

const (
	RefundReasonAdmin        RefundReason = "admin"         // 管理员退款
	RefundReasonNoConfidence RefundReason = "no_confidence" // 不信任投票通过
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
