package event

import (
	"github.com/hbulgarini/imbue/internal/model"
)

type withdrawalStore interface {
	CreateWithdrawalRecord(record *model.WithdrawalRecordModel) error
}

// WithdrawalProcessor 提款事件处理器
type WithdrawalProcessor struct {
	records withdrawalStore
}

// NewWithdrawalProcessor 创建提款事件处理器
func NewWithdrawalProcessor(records withdrawalStore) *WithdrawalProcessor {
	return &WithdrawalProcessor{records: records}
}

// EventTypes 实现 Processor
func (p *WithdrawalProcessor) EventTypes() []Type {
	return []Type{TypeProjectFundsWithdrawn}
}

// Process 事件金额为发起人实得，手续费单列
func (p *WithdrawalProcessor) Process(ev Event) error {
	return p.records.CreateWithdrawalRecord(&model.WithdrawalRecordModel{
		ProjectId:     int64(ev.ProjectKey),
		GrossAmount:   int64(ev.Amount + ev.Fee),
		PlatformFee:   int64(ev.Fee),
		CreatorAmount: int64(ev.Amount),
		Currency:      string(ev.Currency),
		Address:       ev.Account.Hex(),
		EventId:       ev.ID,
		BlockNum:      int64(ev.Height),
	})
}
