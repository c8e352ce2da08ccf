package event

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hbulgarini/imbue/internal/model"
)

type eventStore interface {
	CreateEvent(event *model.EventModel) error
}

// RecordProcessor 记录所有事件原文
type RecordProcessor struct {
	events eventStore
}

// NewRecordProcessor 创建事件记录处理器
func NewRecordProcessor(events eventStore) *RecordProcessor {
	return &RecordProcessor{events: events}
}

// EventTypes 实现 Processor
func (p *RecordProcessor) EventTypes() []Type {
	return AllTypes
}

// Process 将事件保存为 JSON
func (p *RecordProcessor) Process(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrapf(err, "encode event %s", ev.ID)
	}

	record := model.EventModel{
		EventId:   ev.ID,
		EventType: string(ev.Type),
		ProjectId: int64(ev.ProjectKey),
		RoundKey:  ev.roundKey(),
		Account:   ev.Account.Hex(),
		BlockNum:  int64(ev.Height),
		Data:      string(data),
	}
	return p.events.CreateEvent(&record)
}
