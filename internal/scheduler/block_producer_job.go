package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/hbulgarini/imbue/internal/chain"
	"github.com/hbulgarini/imbue/internal/logger"
)

// BlockProducerJob 周期推进区块高度
//
// 本地时钟每次前进一个区块；链上时钟拉取节点最新高度。
type BlockProducerJob struct {
	source   chain.Source
	interval time.Duration
}

// NewBlockProducerJob 创建出块任务
func NewBlockProducerJob(source chain.Source, interval time.Duration) *BlockProducerJob {
	if interval <= 0 {
		interval = 6 * time.Second
	}
	return &BlockProducerJob{source: source, interval: interval}
}

// GetName 获取任务名称
func (j *BlockProducerJob) GetName() string {
	return "block_producer"
}

// GetSchedule 获取调度配置
func (j *BlockProducerJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *BlockProducerJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	height, err := j.source.Sync(ctx)
	if err != nil {
		logger.Warn("Block sync failed, keeping height %d: %v", j.source.CurrentHeight(), err)
		return
	}
	logger.Debug("Block height now %d", height)
}
