package logic

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/hbulgarini/imbue/internal/model"
)

// RefundRecordLogic 退款记录业务逻辑
type RefundRecordLogic struct {
	db *gorm.DB
}

// NewRefundRecordLogic 创建退款记录业务逻辑
func NewRefundRecordLogic(db *gorm.DB) *RefundRecordLogic {
	return &RefundRecordLogic{db: db}
}

// CreateRefundRecords 在一个事务中写入同一退款事件的全部记录
//
// 事件已写入过时直接返回。
func (r *RefundRecordLogic) CreateRefundRecords(records []model.RefundRecordModel) error {
	if len(records) == 0 {
		return nil
	}
	eventId := records[0].EventId
	for i := range records {
		if err := r.validateRefundRecord(&records[i]); err != nil {
			return err
		}
		if records[i].EventId != eventId {
			return errors.New("退款记录必须来自同一事件")
		}
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.RefundRecordModel{}).Where("event_id = ?", eventId).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	return errors.Wrapf(err, "create refund records for event %s", eventId)
}

// GetProjectRefundRecords 获取项目退款记录
func (r *RefundRecordLogic) GetProjectRefundRecords(projectId int64, page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	var records []model.RefundRecordModel
	var total int64

	query := r.db.Model(&model.RefundRecordModel{}).Where("project_id = ?", projectId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count refund records")
	}

	offset, limit := paginate(page, pageSize)
	if err := query.Offset(offset).
		Limit(limit).
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list refund records")
	}
	return records, total, nil
}

// validateRefundRecord 验证退款数据
func (r *RefundRecordLogic) validateRefundRecord(record *model.RefundRecordModel) error {
	if record.Amount <= 0 {
		return errors.New("退款金额必须大于0")
	}
	if record.Address == "" {
		return errors.New("退款地址不能为空")
	}
	if record.EventId == "" {
		return errors.New("事件编号不能为空")
	}
	switch record.RefundReason {
	case model.RefundReasonAdmin, model.RefundReasonNoConfidence:
	default:
		return errors.Errorf("未知的退款原因: %s", record.RefundReason)
	}
	return nil
}
