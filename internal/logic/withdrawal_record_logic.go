package logic

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hbulgarini/imbue/internal/model"
)

// WithdrawalRecordLogic 提款记录业务逻辑
type WithdrawalRecordLogic struct {
	db *gorm.DB
}

// NewWithdrawalRecordLogic 创建提款记录业务逻辑
func NewWithdrawalRecordLogic(db *gorm.DB) *WithdrawalRecordLogic {
	return &WithdrawalRecordLogic{db: db}
}

// CreateWithdrawalRecord 创建提款记录，同一事件重复写入时忽略
func (w *WithdrawalRecordLogic) CreateWithdrawalRecord(record *model.WithdrawalRecordModel) error {
	if record.GrossAmount <= 0 {
		return errors.New("提款金额必须大于0")
	}
	if record.GrossAmount != record.PlatformFee+record.CreatorAmount {
		return errors.Errorf("提款金额 %d 不等于手续费 %d 与实得 %d 之和",
			record.GrossAmount, record.PlatformFee, record.CreatorAmount)
	}
	if record.EventId == "" {
		return errors.New("事件编号不能为空")
	}

	err := w.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(record).Error
	return errors.Wrapf(err, "create withdrawal record for event %s", record.EventId)
}

// GetProjectWithdrawalRecords 获取项目提款记录
func (w *WithdrawalRecordLogic) GetProjectWithdrawalRecords(projectId int64, page, pageSize int) ([]model.WithdrawalRecordModel, int64, error) {
	var records []model.WithdrawalRecordModel
	var total int64

	query := w.db.Model(&model.WithdrawalRecordModel{}).Where("project_id = ?", projectId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count withdrawal records")
	}

	offset, limit := paginate(page, pageSize)
	if err := query.Offset(offset).
		Limit(limit).
		Order("block_num DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list withdrawal records")
	}
	return records, total, nil
}
