package event

import (
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

type refundStore interface {
	CreateRefundRecords(records []model.RefundRecordModel) error
}

// RefundProcessor 退款事件处理器
type RefundProcessor struct {
	records refundStore
}

// NewRefundProcessor 创建退款事件处理器
func NewRefundProcessor(records refundStore) *RefundProcessor {
	return &RefundProcessor{records: records}
}

// EventTypes 实现 Processor
func (p *RefundProcessor) EventTypes() []Type {
	return []Type{TypeProjectLockedFundsRefunded}
}

// Process 每个退款账户一条记录
func (p *RefundProcessor) Process(ev Event) error {
	records := make([]model.RefundRecordModel, 0, len(ev.Refunds))
	for _, r := range ev.Refunds {
		records = append(records, model.RefundRecordModel{
			ProjectId:    int64(ev.ProjectKey),
			Amount:       int64(r.Amount),
			Currency:     string(ev.Currency),
			Address:      r.Account.Hex(),
			EventId:      ev.ID,
			BlockNum:     int64(ev.Height),
			RefundReason: model.RefundReason(ev.Reason),
		})
	}
	if err := p.records.CreateRefundRecords(records); err != nil {
		return err
	}

	logger.Info("Processed refund of project %d: %d accounts, total %d", ev.ProjectKey, len(records), ev.Amount)
	return nil
}
