package model

import (
	"time"
)

// WithdrawalRecordModel 提款结算记录
type WithdrawalRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId     int64  `json:"project_id" gorm:"not null;index"`
	GrossAmount   int64  `json:"gross_amount" gorm:"not null"`   // 计入已提取的总额
	PlatformFee   int64  `json:"platform_fee" gorm:"default:0"`  // 平台手续费
	CreatorAmount int64  `json:"creator_amount" gorm:"not null"` // 发起人实得金额
	Currency      string `json:"currency" gorm:"not null"`
	Address       string `json:"address" gorm:"not null"`
	EventId       string `json:"event_id" gorm:"uniqueIndex"`
	BlockNum      int64  `json:"block_num"`
}

// TableName 自定义表名
func (WithdrawalRecordModel) TableName() string {
	return "withdrawal_record"
}
