package event

import (
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

type contributeStore interface {
	CreateContributeRecord(record *model.ContributeRecordModel) error
}

// ContributeProcessor 贡献事件处理器
type ContributeProcessor struct {
	records contributeStore
}

// NewContributeProcessor 创建贡献事件处理器
func NewContributeProcessor(records contributeStore) *ContributeProcessor {
	return &ContributeProcessor{records: records}
}

// EventTypes 实现 Processor
func (p *ContributeProcessor) EventTypes() []Type {
	return []Type{TypeContributeSucceeded}
}

// Process 处理贡献事件
func (p *ContributeProcessor) Process(ev Event) error {
	contribution := model.ContributeRecordModel{
		ProjectId: int64(ev.ProjectKey),
		RoundKey:  ev.roundKey(),
		Amount:    int64(ev.Amount),
		Currency:  string(ev.Currency),
		Address:   ev.Account.Hex(),
		EventId:   ev.ID,
		BlockNum:  int64(ev.Height),
	}

	// 通过logic层创建贡献记录
	if err := p.records.CreateContributeRecord(&contribution); err != nil {
		return err
	}

	logger.Debug("Processed contribution: %d %s from %s to project %d",
		contribution.Amount, contribution.Currency, contribution.Address, ev.ProjectKey)
	return nil
}
