package scheduler

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/hbulgarini/imbue/internal/engine"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// NoConfidenceFinaliser 结算不信任投票所需的引擎接口
type NoConfidenceFinaliser interface {
	CurrentHeight() model.BlockNumber
	LiveNoConfidenceRounds() ([]engine.NoConfidenceRound, error)
	FinaliseNoConfidenceRound(caller model.AccountID, roundKey *model.RoundKey, project model.ProjectKey) (bool, error)
}

// NoConfidenceKeeperJob 结算窗口已结束的不信任投票
type NoConfidenceKeeperJob struct {
	engine   NoConfidenceFinaliser
	keeper   model.AccountID
	interval time.Duration
}

// NewNoConfidenceKeeperJob 创建不信任投票结算任务
func NewNoConfidenceKeeperJob(e NoConfidenceFinaliser, keeper model.AccountID, interval time.Duration) *NoConfidenceKeeperJob {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &NoConfidenceKeeperJob{
		engine:   e,
		keeper:   keeper,
		interval: interval,
	}
}

// GetName 获取任务名称
func (j *NoConfidenceKeeperJob) GetName() string {
	return "no_confidence_keeper"
}

// GetSchedule 获取调度配置
func (j *NoConfidenceKeeperJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *NoConfidenceKeeperJob) Execute() {
	j.Run()
}

// Run 结算所有已过期的轮次，返回成功结算的数量
func (j *NoConfidenceKeeperJob) Run() int {
	rounds, err := j.engine.LiveNoConfidenceRounds()
	if err != nil {
		logger.Error("Failed to list no-confidence rounds: %v", err)
		return 0
	}

	now := j.engine.CurrentHeight()
	finalised := 0
	for _, r := range rounds {
		if now < r.Round.End {
			continue
		}

		key := r.Round.Key
		passed, err := j.engine.FinaliseNoConfidenceRound(j.keeper, &key, r.ProjectKey)
		if err != nil {
			logger.Error("Failed to finalise no-confidence round %d of project %d: %v", key, r.ProjectKey, err)
			continue
		}
		finalised++
		logger.Info("No-confidence round %d of project %d finalised, passed=%v", key, r.ProjectKey, passed)
	}
	return finalised
}
