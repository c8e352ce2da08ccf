package event

import (
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// Bus 异步投递已提交事件
//
// 每批事件按项目分组，不同项目并行处理，同一项目内保持提交顺序。
// 批次之间串行，下一批在上一批处理完后才开始。
type Bus struct {
	manager *ProcessorManager
	pool    *ants.Pool
	queue   chan []Event

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewBus 创建事件总线，workers 为并行处理的项目数上限
func NewBus(manager *ProcessorManager, workers, buffer int) (*Bus, error) {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.Wrap(err, "create event worker pool")
	}
	return &Bus{
		manager: manager,
		pool:    pool,
		queue:   make(chan []Event, buffer),
		done:    make(chan struct{}),
	}, nil
}

// Start 启动分发协程
func (b *Bus) Start() {
	go b.dispatch()
	logger.Info("Event bus started")
}

// Publish 实现 Publisher，总线停止后丢弃事件
func (b *Bus) Publish(events []Event) {
	if len(events) == 0 {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		logger.Warn("Event bus stopped, dropping %d events", len(events))
		return
	}
	b.queue <- append([]Event(nil), events...)
}

// Stop 停止接收事件，等待已入队事件处理完毕
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	close(b.queue)
	b.mu.Unlock()

	<-b.done
	b.pool.Release()
	logger.Info("Event bus stopped")
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for batch := range b.queue {
		var wg sync.WaitGroup
		for _, group := range groupByProject(batch) {
			group := group
			wg.Add(1)
			task := func() {
				defer wg.Done()
				b.deliver(group)
			}
			if err := b.pool.Submit(task); err != nil {
				logger.Warn("Submit event task failed, processing inline: %v", err)
				task()
			}
		}
		wg.Wait()
	}
}

func (b *Bus) deliver(events []Event) {
	for _, ev := range events {
		if err := b.manager.ProcessEvent(ev); err != nil {
			logger.Error("Event %s (%s) not fully processed: %v", ev.ID, ev.Type, err)
		}
	}
}

// groupByProject 按项目首次出现的顺序分组
func groupByProject(events []Event) [][]Event {
	index := make(map[model.ProjectKey]int)
	var groups [][]Event
	for _, ev := range events {
		i, ok := index[ev.ProjectKey]
		if !ok {
			i = len(groups)
			index[ev.ProjectKey] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], ev)
	}
	return groups
}
