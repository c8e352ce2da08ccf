package engine

import (
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// checkNoConfidenceLive 项目已有未结算且未取消的不信任轮时拒绝
func (c *call) checkNoConfidenceLive(project model.ProjectKey) error {
	vote, ok, err := c.tx.NoConfidenceVote(project)
	if err != nil {
		return wrap(ErrStorage, err)
	}
	if !ok || vote.Finalised {
		return nil
	}
	r, ok, err := c.tx.Round(vote.RoundKey)
	if err != nil {
		return wrap(ErrStorage, err)
	}
	if ok && r.IsCanceled {
		return nil
	}
	return fail(ErrNoConfidenceRoundLive, "project %d round %d", project, vote.RoundKey)
}

// RaiseVoteOfNoConfidence 贡献者发起不信任投票
func (e *Engine) RaiseVoteOfNoConfidence(contributor model.AccountID, project model.ProjectKey) (model.RoundKey, error) {
	var key model.RoundKey
	err := e.execute("raise_vote_of_no_confidence", func(c *call) error {
		p, err := c.project(project)
		if err != nil {
			return err
		}
		if _, err := contributionWeight(p, contributor); err != nil {
			return err
		}
		if err := requireApproved(p); err != nil {
			return err
		}
		if err := c.checkNoConfidenceLive(project); err != nil {
			return err
		}

		end, ok := addHeight(c.now, c.e.cfg.NoConfidenceTimeLimit)
		if !ok {
			return fail(ErrOverflow, "no-confidence window end")
		}
		key, err = c.createRound(model.Round{
			Start:       c.now,
			End:         end,
			ProjectKeys: []model.ProjectKey{project},
			Type:        model.RoundTypeNoConfidence,
		})
		if err != nil {
			return err
		}
		if err := c.tx.PutNoConfidenceVote(project, model.NoConfidenceVote{RoundKey: key}); err != nil {
			return wrap(ErrStorage, err)
		}

		ev := c.newEvent(event.TypeNoConfidenceRoundCreated, project).WithRound(key)
		ev.Account = contributor
		c.emit(ev)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("No-confidence round %d raised on project %d by %s", key, project, contributor.Hex())
	return key, nil
}

// VoteOnNoConfidenceRound 贡献者按全部贡献额参与不信任投票
func (e *Engine) VoteOnNoConfidenceRound(contributor model.AccountID, roundKey *model.RoundKey, project model.ProjectKey, isYay bool) error {
	return e.execute("vote_on_no_confidence_round", func(c *call) error {
		p, err := c.project(project)
		if err != nil {
			return err
		}
		weight, err := contributionWeight(p, contributor)
		if err != nil {
			return err
		}
		if err := requireApproved(p); err != nil {
			return err
		}

		r, err := c.resolveOpenRound(roundKey, project, model.RoundTypeNoConfidence, nil)
		if err != nil {
			return err
		}
		vote, ok, err := c.tx.NoConfidenceVote(project)
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if !ok || vote.RoundKey != r.Key {
			return fail(ErrNoActiveRound, "no-confidence tally of project %d is not bound to round %d", project, r.Key)
		}
		if vote.Finalised {
			return fail(ErrVoteFinalised, "project %d round %d", project, r.Key)
		}

		voted, err := c.tx.HasNoConfidenceUserVote(contributor, project, r.Key)
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if voted {
			return fail(ErrVoteAlreadyExists, "project %d round %d", project, r.Key)
		}

		if isYay {
			vote.Yay, ok = vote.Yay.Add(weight)
		} else {
			vote.Nay, ok = vote.Nay.Add(weight)
		}
		if !ok {
			return fail(ErrOverflow, "no-confidence tally")
		}
		if err := c.tx.PutNoConfidenceUserVote(contributor, project, r.Key, isYay); err != nil {
			return wrap(ErrStorage, err)
		}
		if err := c.tx.PutNoConfidenceVote(project, vote); err != nil {
			return wrap(ErrStorage, err)
		}

		ev := c.newEvent(event.TypeNoConfidenceRoundVotedUpon, project).WithRound(r.Key)
		ev.Account = contributor
		ev.Approved = isYay
		ev.Amount = weight
		ev.Yay, ev.Nay = vote.Yay, vote.Nay
		c.emit(ev)
		return nil
	})
}

// FinaliseNoConfidenceRound 结算不信任投票，任何人都可调用
//
// 通过时项目取消并退还全部未提取资金，返回是否通过。
func (e *Engine) FinaliseNoConfidenceRound(caller model.AccountID, roundKey *model.RoundKey, project model.ProjectKey) (bool, error) {
	var passed bool
	err := e.execute("finalise_no_confidence_round", func(c *call) error {
		p, err := c.project(project)
		if err != nil {
			return err
		}
		if err := requireOpen(p); err != nil {
			return err
		}

		vote, ok, err := c.tx.NoConfidenceVote(project)
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if !ok {
			return fail(ErrNoActiveRound, "project %d has no no-confidence round", project)
		}
		if roundKey != nil && *roundKey != vote.RoundKey {
			return fail(ErrNoActiveRound, "round %d is not the current no-confidence round %d", *roundKey, vote.RoundKey)
		}
		if vote.Finalised {
			return fail(ErrVoteFinalised, "project %d round %d", project, vote.RoundKey)
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
			return fail(ErrOverflow, "no-confidence tally")
		}
		pass, decided := t.outcome(e.noConfidencePasses, uint64(p.RaisedFunds))
		if (!decided || !p.ApprovedForFunding) && c.now < r.End {
			return fail(ErrVotingNotDecided, "round %d ends at %d", r.Key, r.End)
		}

		vote.Finalised = true
		vote.Passed = pass
		if err := c.tx.PutNoConfidenceVote(project, vote); err != nil {
			return wrap(ErrStorage, err)
		}
		passed = pass

		ev := c.newEvent(event.TypeNoConfidenceRoundFinalised, project).WithRound(r.Key)
		ev.Account = caller
		ev.Approved = pass
		ev.Yay, ev.Nay = vote.Yay, vote.Nay
		c.emit(ev)

		if pass {
			if _, err := c.refundAll(p, caller, model.RefundReasonNoConfidence); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Info("No-confidence round on project %d finalised, passed=%v", project, passed)
	return passed, nil
}
