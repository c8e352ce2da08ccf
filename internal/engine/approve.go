package engine

import (
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/model"
)

// latestContributionRound 最新的未取消且包含项目的募资轮，不看窗口
func (c *call) latestContributionRound(project model.ProjectKey) (model.Round, error) {
	count, err := c.tx.RoundCount()
	if err != nil {
		return model.Round{}, wrap(ErrStorage, err)
	}
	for k := count; k > 0; k-- {
		r, err := c.round(model.RoundKey(k - 1))
		if err != nil {
			return r, err
		}
		if !r.IsCanceled && r.Type == model.RoundTypeContribution && r.HasProject(project) {
			return r, nil
		}
	}
	return model.Round{}, fail(ErrNoActiveRound, "project %d has no contribution round", project)
}

// Approve 管理员在募资轮结束后批准项目
//
// milestoneKeys 中已获得多数赞成的里程碑立即批准。
func (e *Engine) Approve(admin model.AccountID, roundKey *model.RoundKey, project model.ProjectKey, milestoneKeys []model.MilestoneKey) error {
	return e.execute("approve", func(c *call) error {
		if err := c.requireAuthority(admin); err != nil {
			return err
		}
		p, err := c.project(project)
		if err != nil {
			return err
		}
		if err := requireOpen(p); err != nil {
			return err
		}
		if p.ApprovedForFunding {
			return fail(ErrProjectAlreadyApproved, "project %d", project)
		}

		var r model.Round
		if roundKey == nil {
			r, err = c.latestContributionRound(project)
		} else {
			r, err = c.round(*roundKey)
		}
		if err != nil {
			return err
		}
		switch {
		case r.Type != model.RoundTypeContribution:
			return fail(ErrWrongRoundType, "round %d is %s", r.Key, r.Type)
		case r.IsCanceled:
			return fail(ErrRoundCanceled, "round %d", r.Key)
		case !r.HasProject(project):
			return fail(ErrProjectNotInRound, "project %d round %d", project, r.Key)
		case !r.HasEndedAt(c.now):
			return fail(ErrRoundNotEnded, "round %d ends at %d", r.Key, r.End)
		}

		p = p.Clone()
		p.ApprovedForFunding = true

		var approved []model.MilestoneKey
		for _, mk := range milestoneKeys {
			m, ok := p.Milestone(mk)
			if !ok {
				return fail(ErrMilestoneNotFound, "project %d milestone %d", project, mk)
			}
			if m.IsApproved {
				continue
			}
			vote, ok, err := c.tx.MilestoneVote(project, mk)
			if err != nil {
				return wrap(ErrStorage, err)
			}
			if !ok || vote.Yay <= vote.Nay {
				continue
			}
			m.IsApproved = true
			p.SetMilestone(m)
			vote.Finalised = true
			vote.IsApproved = true
			if err := c.tx.PutMilestoneVote(project, mk, vote); err != nil {
				return wrap(ErrStorage, err)
			}
			approved = append(approved, mk)
		}
		if err := c.putProject(p); err != nil {
			return err
		}

		ev := c.newEvent(event.TypeProjectApproved, project).WithRound(r.Key).WithProject(p)
		ev.Account = admin
		ev.Milestones = approved
		c.emit(ev)

		for _, mk := range approved {
			mev := c.newEvent(event.TypeMilestoneApproved, project).WithRound(r.Key).WithMilestone(mk).WithProject(p)
			mev.Account = admin
			mev.Approved = true
			c.emit(mev)
		}
		return nil
	})
}

