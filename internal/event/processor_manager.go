package event

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/logic"
)

// Processor 事件处理器接口
type Processor interface {
	Process(ev Event) error
	EventTypes() []Type
}

// ProcessorManager 事件处理器管理器，同一事件类型可注册多个处理器
type ProcessorManager struct {
	mu         sync.RWMutex
	processors map[Type][]Processor
}

// NewProcessorManager 创建处理器管理器
func NewProcessorManager(processors ...Processor) *ProcessorManager {
	manager := &ProcessorManager{
		processors: make(map[Type][]Processor),
	}
	for _, p := range processors {
		manager.RegisterProcessor(p)
	}
	return manager
}

// NewReadModelManager 创建维护 Postgres 读模型的处理器管理器
func NewReadModelManager(db *gorm.DB) *ProcessorManager {
	milestoneLogic := logic.NewMilestoneLogic(db)

	manager := NewProcessorManager(
		NewRecordProcessor(logic.NewEventLogic(db)),
		NewProjectProcessor(logic.NewProjectLogic(db), milestoneLogic),
		NewMilestoneProcessor(milestoneLogic),
		NewContributeProcessor(logic.NewContributeRecordLogic(db)),
		NewRefundProcessor(logic.NewRefundRecordLogic(db)),
		NewWithdrawalProcessor(logic.NewWithdrawalRecordLogic(db)),
	)

	logger.Info("ProcessorManager initialized for %d event types", len(manager.GetSupportedEventTypes()))
	return manager
}

// RegisterProcessor 注册事件处理器
func (pm *ProcessorManager) RegisterProcessor(processor Processor) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, t := range processor.EventTypes() {
		pm.processors[t] = append(pm.processors[t], processor)
		logger.Debug("Registered processor %T for event type: %s", processor, t)
	}
}

// GetProcessors 获取指定事件类型的处理器
func (pm *ProcessorManager) GetProcessors(t Type) []Processor {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return append([]Processor(nil), pm.processors[t]...)
}

// ProcessEvent 依次交给所有处理器，单个失败不影响其余处理器
func (pm *ProcessorManager) ProcessEvent(ev Event) error {
	processors := pm.GetProcessors(ev.Type)
	if len(processors) == 0 {
		logger.Debug("No processor found for event type: %s", ev.Type)
		return nil
	}

	log := logger.With(zap.String("event_id", ev.ID), zap.String("event_type", string(ev.Type)))
	var first error
	for _, p := range processors {
		if err := p.Process(ev); err != nil {
			log.Error("Processor %T failed: %v", p, err)
			if first == nil {
				first = errors.Wrapf(err, "process %s event %s", ev.Type, ev.ID)
			}
		}
	}
	return first
}

// GetSupportedEventTypes 获取支持的事件类型列表
func (pm *ProcessorManager) GetSupportedEventTypes() []Type {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	types := make([]Type, 0, len(pm.processors))
	for t := range pm.processors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
