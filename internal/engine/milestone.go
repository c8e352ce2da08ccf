package engine

import (
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// liveMilestoneRound 返回仍在投票中的轮次：计票未结算、轮次未取消且窗口未结束
func (c *call) liveMilestoneRound(p model.ProjectKey, m model.MilestoneKey) (model.Round, bool, error) {
	vote, ok, err := c.tx.MilestoneVote(p, m)
	if err != nil {
		return model.Round{}, false, wrap(ErrStorage, err)
	}
	if !ok || vote.Finalised {
		return model.Round{}, false, nil
	}
	r, ok, err := c.tx.Round(vote.RoundKey)
	if err != nil {
		return model.Round{}, false, wrap(ErrStorage, err)
	}
	if !ok || r.IsCanceled || c.now >= r.End {
		return model.Round{}, false, nil
	}
	return r, true, nil
}

// checkMilestoneResubmit 里程碑仍在投票中时，只有允许重新提交才能继续
func (c *call) checkMilestoneResubmit(p model.ProjectKey, m model.MilestoneKey) error {
	r, live, err := c.liveMilestoneRound(p, m)
	if err != nil || !live {
		return err
	}
	if !c.params.AllowResubmitDuringVoting {
		return fail(ErrMilestoneVotingInProgress, "project %d milestone %d round %d ends at %d", p, m, r.Key, r.End)
	}
	return nil
}

// openMilestoneTally 将计票清零并绑定到新轮次
//
// 被取代的轮次如果只覆盖这一个里程碑则同时取消。
func (c *call) openMilestoneTally(p model.ProjectKey, m model.MilestoneKey, key model.RoundKey) error {
	old, live, err := c.liveMilestoneRound(p, m)
	if err != nil {
		return err
	}
	if live && old.Key != key && len(old.ProjectKeys) == 1 && len(old.MilestoneKeys) == 1 {
		old.IsCanceled = true
		if err := c.putRound(old); err != nil {
			return err
		}
		logger.Info("Voting round %d superseded by round %d", old.Key, key)
	}
	if err := c.tx.PutMilestoneVote(p, m, model.Vote{RoundKey: key}); err != nil {
		return wrap(ErrStorage, err)
	}
	return nil
}

// SubmitMilestone 发起人提交里程碑，开启投票窗口
func (e *Engine) SubmitMilestone(initiator model.AccountID, project model.ProjectKey, milestone model.MilestoneKey) (model.RoundKey, error) {
	var key model.RoundKey
	err := e.execute("submit_milestone", func(c *call) error {
		p, err := c.project(project)
		if err != nil {
			return err
		}
		if err := requireInitiator(p, initiator); err != nil {
			return err
		}
		if err := requireApproved(p); err != nil {
			return err
		}
		m, ok := p.Milestone(milestone)
		if !ok {
			return fail(ErrMilestoneNotFound, "project %d milestone %d", project, milestone)
		}
		if m.IsApproved {
			return fail(ErrMilestoneAlreadyApproved, "project %d milestone %d", project, milestone)
		}
		if err := c.checkMilestoneResubmit(project, milestone); err != nil {
			return err
		}

		end, ok := addHeight(c.now, c.e.cfg.MilestoneVotingWindow)
		if !ok {
			return fail(ErrOverflow, "voting window end")
		}
		key, err = c.createRound(model.Round{
			Start:         c.now,
			End:           end,
			ProjectKeys:   []model.ProjectKey{project},
			MilestoneKeys: []model.MilestoneKey{milestone},
			Type:          model.RoundTypeVoting,
		})
		if err != nil {
			return err
		}
		if err := c.openMilestoneTally(project, milestone, key); err != nil {
			return err
		}

		ev := c.newEvent(event.TypeVotingRoundCreated, project).WithRound(key).WithMilestone(milestone)
		ev.Account = initiator
		c.emit(ev)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Milestone %d of project %d submitted for voting in round %d", milestone, project, key)
	return key, nil
}

// VoteOnMilestone 贡献者按全部贡献额投票
func (e *Engine) VoteOnMilestone(voter model.AccountID, project model.ProjectKey, milestone model.MilestoneKey, roundKey *model.RoundKey, approve bool) error {
	return e.execute("vote_on_milestone", func(c *call) error {
		p, err := c.project(project)
		if err != nil {
			return err
		}
		if err := requireOpen(p); err != nil {
			return err
		}
		m, ok := p.Milestone(milestone)
		if !ok {
			return fail(ErrMilestoneNotFound, "project %d milestone %d", project, milestone)
		}
		if m.IsApproved {
			return fail(ErrMilestoneAlreadyApproved, "project %d milestone %d", project, milestone)
		}
		weight, err := contributionWeight(p, voter)
		if err != nil {
			return err
		}

		r, err := c.resolveOpenRound(roundKey, project, model.RoundTypeVoting, func(r model.Round) bool {
			return r.HasMilestone(milestone)
		})
		if err != nil {
			return err
		}
		if !r.HasMilestone(milestone) {
			return fail(ErrNoActiveRound, "round %d does not cover milestone %d", r.Key, milestone)
		}

		vote, ok, err := c.tx.MilestoneVote(project, milestone)
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if !ok || vote.RoundKey != r.Key {
			return fail(ErrNoActiveRound, "milestone %d tally is not bound to round %d", milestone, r.Key)
		}
		if vote.Finalised {
			return fail(ErrVoteFinalised, "project %d milestone %d", project, milestone)
		}

		voted, err := c.tx.HasUserVote(voter, project, milestone, r.Key)
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if voted {
			return fail(ErrVoteAlreadyExists, "project %d milestone %d round %d", project, milestone, r.Key)
		}

		if approve {
			vote.Yay, ok = vote.Yay.Add(weight)
		} else {
			vote.Nay, ok = vote.Nay.Add(weight)
		}
		if !ok {
			return fail(ErrOverflow, "milestone tally")
		}
		if err := c.tx.PutUserVote(voter, project, milestone, r.Key, approve); err != nil {
			return wrap(ErrStorage, err)
		}
		if err := c.tx.PutMilestoneVote(project, milestone, vote); err != nil {
			return wrap(ErrStorage, err)
		}

		ev := c.newEvent(event.TypeVoteComplete, project).WithRound(r.Key).WithMilestone(milestone)
		ev.Account = voter
		ev.Approved = approve
		ev.Amount = weight
		ev.Yay, ev.Nay = vote.Yay, vote.Nay
		c.emit(ev)
		return nil
	})
}

// FinaliseMilestoneVoting 结算里程碑投票
//
// 窗口结束后可结算；项目已批准时，剩余权重无法改变结果也可提前结算。返回里程碑是否通过。
func (e *Engine) FinaliseMilestoneVoting(initiator model.AccountID, project model.ProjectKey, milestone model.MilestoneKey) (bool, error) {
	var approved bool
	err := e.execute("finalise_milestone_voting", func(c *call) error {
		p, err := c.project(project)
		if err != nil {
			return err
		}
		if err := requireInitiator(p, initiator); err != nil {
			return err
		}
		if err := requireOpen(p); err != nil {
			return err
		}
		m, ok := p.Milestone(milestone)
		if !ok {
			return fail(ErrMilestoneNotFound, "project %d milestone %d", project, milestone)
		}
		if m.IsApproved {
			return fail(ErrMilestoneAlreadyApproved, "project %d milestone %d", project, milestone)
		}

		vote, ok, err := c.tx.MilestoneVote(project, milestone)
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if !ok {
			return fail(ErrMilestoneNotSubmitted, "project %d milestone %d", project, milestone)
		}
		if vote.Finalised {
			return fail(ErrVoteFinalised, "project %d milestone %d", project, milestone)
		}
		r, err := c.round(vote.RoundKey)
		if err != nil {
			return err
		}
		if r.IsCanceled {
			return fail(ErrRoundCanceled, "round %d", r.Key)
		}
		if c.now < r.Start {
			return fail(ErrNoActiveRound, "round %d starts at %d", r.Key, r.Start)
		}

		t, ok := newTally(vote.Yay, vote.Nay, p.RaisedFunds)
		if !ok {
			return fail(ErrOverflow, "milestone tally")
		}
		pass, decided := t.outcome(e.milestonePasses, uint64(p.RaisedFunds))
		// 批准前 raised 仍可能增长，只能在窗口结束后结算
		if (!decided || !p.ApprovedForFunding) && c.now < r.End {
			return fail(ErrVotingNotDecided, "round %d ends at %d", r.Key, r.End)
		}

		vote.Finalised = true
		vote.IsApproved = pass
		if err := c.tx.PutMilestoneVote(project, milestone, vote); err != nil {
			return wrap(ErrStorage, err)
		}

		evType := event.TypeMilestoneRejected
		if pass {
			m.IsApproved = true
			p = p.Clone()
			p.SetMilestone(m)
			if err := c.putProject(p); err != nil {
				return err
			}
			evType = event.TypeMilestoneApproved
		}
		approved = pass

		ev := c.newEvent(evType, project).WithRound(r.Key).WithMilestone(milestone).WithProject(p)
		ev.Account = initiator
		ev.Approved = pass
		ev.Yay, ev.Nay = vote.Yay, vote.Nay
		c.emit(ev)
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Info("Milestone %d of project %d finalised, approved=%v", milestone, project, approved)
	return approved, nil
}

// addHeight 返回 h+n，溢出时 ok 为 false
func addHeight(h model.BlockNumber, n uint64) (model.BlockNumber, bool) {
	sum := uint64(h) + n
	if sum < uint64(h) {
		return 0, false
	}
	return model.BlockNumber(sum), true
}
