package event

import (
	"github.com/pkg/errors"

	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/logic"
	"github.com/hbulgarini/imbue/internal/model"
)

type milestoneStore interface {
	UpdateMilestoneStatus(projectId, milestoneKey int64, status model.MilestoneStatus, roundKey *int64) error
	GetProjectMilestones(projectId int64) ([]model.ProjectMilestoneModel, error)
}

// MilestoneProcessor 维护里程碑投票状态
type MilestoneProcessor struct {
	milestones milestoneStore
}

// NewMilestoneProcessor 创建里程碑事件处理器
func NewMilestoneProcessor(milestones milestoneStore) *MilestoneProcessor {
	return &MilestoneProcessor{milestones: milestones}
}

// EventTypes 实现 Processor
func (p *MilestoneProcessor) EventTypes() []Type {
	return []Type{
		TypeVotingRoundCreated,
		TypeFundingRoundCreated,
		TypeMilestoneApproved,
		TypeMilestoneRejected,
	}
}

// Process 处理里程碑相关事件
func (p *MilestoneProcessor) Process(ev Event) error {
	switch ev.Type {
	case TypeVotingRoundCreated:
		if ev.MilestoneKey == nil {
			return nil
		}
		round := ev.roundKey()
		return p.milestones.UpdateMilestoneStatus(int64(ev.ProjectKey), int64(*ev.MilestoneKey), model.MilestoneStatusVoting, &round)
	case TypeFundingRoundCreated:
		return p.processVotingRound(ev)
	case TypeMilestoneApproved:
		return p.setStatus(ev, model.MilestoneStatusApproved)
	case TypeMilestoneRejected:
		return p.setStatus(ev, model.MilestoneStatusRejected)
	}
	return nil
}

func (p *MilestoneProcessor) setStatus(ev Event, status model.MilestoneStatus) error {
	if ev.MilestoneKey == nil {
		return nil
	}
	return p.milestones.UpdateMilestoneStatus(int64(ev.ProjectKey), int64(*ev.MilestoneKey), status, nil)
}

// processVotingRound 管理员创建的投票轮只覆盖各项目未批准的里程碑
func (p *MilestoneProcessor) processVotingRound(ev Event) error {
	if ev.Round == nil || ev.Round.Type != model.RoundTypeVoting {
		return nil
	}
	round := int64(ev.Round.Key)

	for _, pk := range ev.Round.ProjectKeys {
		existing, err := p.milestones.GetProjectMilestones(int64(pk))
		if err != nil {
			return err
		}
		for _, m := range existing {
			if m.Status == model.MilestoneStatusApproved || !ev.Round.HasMilestone(model.MilestoneKey(m.MilestoneKey)) {
				continue
			}
			err := p.milestones.UpdateMilestoneStatus(m.ProjectId, m.MilestoneKey, model.MilestoneStatusVoting, &round)
			if err != nil && !errors.Is(err, logic.ErrNotFound) {
				return err
			}
		}
	}
	logger.Debug("Voting round %d applied to %d projects", round, len(ev.Round.ProjectKeys))
	return nil
}
