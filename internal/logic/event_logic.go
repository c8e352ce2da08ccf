package logic

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hbulgarini/imbue/internal/model"
)

// EventLogic 事件记录业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// CreateEvent 创建事件记录，已存在时忽略
func (e *EventLogic) CreateEvent(event *model.EventModel) error {
	if err := e.validateEvent(event); err != nil {
		return err
	}
	err := e.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event).Error
	return errors.Wrapf(err, "create event %s", event.EventId)
}

// EventFilter 事件查询条件，零值字段不过滤
type EventFilter struct {
	ProjectId *int64
	EventType string
	Account   string
}

// GetEvents 获取事件列表
func (e *EventLogic) GetEvents(filter EventFilter, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	// 构建查询条件
	query := e.db.Model(&model.EventModel{})
	if filter.ProjectId != nil {
		query = query.Where("project_id = ?", *filter.ProjectId)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Account != "" {
		query = query.Where("account = ?", filter.Account)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count events")
	}

	offset, limit := paginate(page, pageSize)
	if err := query.Offset(offset).Limit(limit).Order("id DESC").Find(&events).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list events")
	}
	return events, total, nil
}

// GetEvent 按事件编号获取事件
func (e *EventLogic) GetEvent(eventId string) (*model.EventModel, error) {
	var event model.EventModel
	if err := e.db.Where("event_id = ?", eventId).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "event %s", eventId)
		}
		return nil, errors.Wrapf(err, "get event %s", eventId)
	}
	return &event, nil
}

// CheckEventExists 检查事件是否已存在
func (e *EventLogic) CheckEventExists(eventId string) (bool, error) {
	var count int64
	err := e.db.Model(&model.EventModel{}).Where("event_id = ?", eventId).Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "check event %s", eventId)
	}
	return count > 0, nil
}

// GetLastProcessedBlock 获取已记录事件的最大区块高度
func (e *EventLogic) GetLastProcessedBlock() (uint64, error) {
	var lastEvent model.EventModel
	err := e.db.Order("block_num DESC").First(&lastEvent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // 没有事件记录，返回0
		}
		return 0, errors.Wrap(err, "last processed block")
	}
	return uint64(lastEvent.BlockNum), nil
}

// GetEventStatistics 按事件类型统计数量
func (e *EventLogic) GetEventStatistics(projectId *int64) (map[string]int64, error) {
	var rows []struct {
		EventType string
		Count     int64
	}
	query := e.db.Model(&model.EventModel{}).Select("event_type, COUNT(*) AS count")
	if projectId != nil {
		query = query.Where("project_id = ?", *projectId)
	}
	if err := query.Group("event_type").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "event statistics")
	}

	stats := make(map[string]int64, len(rows))
	for _, r := range rows {
		stats[r.EventType] = r.Count
	}
	return stats, nil
}

// validateEvent 验证事件数据
func (e *EventLogic) validateEvent(event *model.EventModel) error {
	if event.EventId == "" {
		return errors.New("事件编号不能为空")
	}
	if event.EventType == "" {
		return errors.New("事件类型不能为空")
	}
	return nil
}
