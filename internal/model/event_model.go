package model

import (
	"time"
)

// EventModel 引擎事件记录
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventId   string `json:"event_id" gorm:"not null;uniqueIndex"`
	EventType string `json:"event_type" gorm:"not null;index"`
	ProjectId int64  `json:"project_id" gorm:"index"`
	RoundKey  int64  `json:"round_key"`
	Account   string `json:"account"`
	BlockNum  int64  `json:"block_num" gorm:"not null"`
	Data      string `json:"data" gorm:"type:text"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
