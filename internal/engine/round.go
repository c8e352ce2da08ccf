package engine

import (
	"math"
	"sort"

	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
	"github.com/hbulgarini/imbue/internal/store"
)

// ScheduleRoundRequest 排期轮次参数
type ScheduleRoundRequest struct {
	Start         model.BlockNumber    `json:"start"`
	End           model.BlockNumber    `json:"end"`
	ProjectKeys   []model.ProjectKey   `json:"project_keys"`
	Type          model.RoundType      `json:"round_type"`
	MilestoneKeys []model.MilestoneKey `json:"milestone_keys,omitempty"`
}

// ScheduleRound 管理员排期一个轮次
func (e *Engine) ScheduleRound(admin model.AccountID, req ScheduleRoundRequest) (model.RoundKey, error) {
	var key model.RoundKey
	err := e.execute("schedule_round", func(c *call) error {
		if err := c.requireAuthority(admin); err != nil {
			return err
		}
		if req.End <= req.Start {
			return fail(ErrInvalidRoundWindow, "end %d must be after start %d", req.End, req.Start)
		}
		if req.End <= c.now {
			return fail(ErrInvalidRoundWindow, "end %d is not after current height %d", req.End, c.now)
		}
		if len(req.ProjectKeys) == 0 {
			return fail(ErrInvalidParam, "no projects")
		}
		if uint32(len(req.ProjectKeys)) > c.params.MaxProjectsPerRound {
			return fail(ErrTooManyProjects, "%d > %d", len(req.ProjectKeys), c.params.MaxProjectsPerRound)
		}
		if req.Type != model.RoundTypeVoting && len(req.MilestoneKeys) > 0 {
			return fail(ErrInvalidParam, "milestone keys only apply to voting rounds")
		}

		seen := make(map[model.ProjectKey]bool, len(req.ProjectKeys))
		projects := make([]model.Project, 0, len(req.ProjectKeys))
		for _, pk := range req.ProjectKeys {
			if seen[pk] {
				return fail(ErrInvalidParam, "duplicate project %d", pk)
			}
			seen[pk] = true
			p, err := c.project(pk)
			if err != nil {
				return err
			}
			projects = append(projects, p)
		}

		round := model.Round{
			Start:       req.Start,
			End:         req.End,
			ProjectKeys: append([]model.ProjectKey(nil), req.ProjectKeys...),
			Type:        req.Type,
		}

		var err error
		switch req.Type {
		case model.RoundTypeContribution:
			key, err = c.createRound(round)
		case model.RoundTypeVoting:
			key, err = c.scheduleVotingRound(round, projects, req.MilestoneKeys)
		case model.RoundTypeNoConfidence:
			key, err = c.scheduleNoConfidenceRound(round, projects)
		default:
			err = fail(ErrWrongRoundType, "%d", req.Type)
		}
		if err != nil {
			return err
		}

		ev := c.newEvent(event.TypeFundingRoundCreated, req.ProjectKeys[0]).WithRound(key)
		ev.Account = admin
		r, err := c.round(key)
		if err != nil {
			return err
		}
		ev.Round = &r
		c.emit(ev)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Round %d (%s) scheduled for blocks [%d, %d)", key, req.Type, req.Start, req.End)
	return key, nil
}

// createRound 分配轮次编号并写入
func (c *call) createRound(r model.Round) (model.RoundKey, error) {
	count, err := c.tx.RoundCount()
	if err != nil {
		return 0, wrap(ErrStorage, err)
	}
	if count == math.MaxUint32 {
		return 0, fail(ErrOverflow, "round count")
	}
	r.Key = model.RoundKey(count)
	if err := c.putRound(r); err != nil {
		return 0, err
	}
	if err := c.tx.PutRoundCount(count + 1); err != nil {
		return 0, wrap(ErrStorage, err)
	}
	return r.Key, nil
}

// scheduleVotingRound 为涉及的每个 (项目, 里程碑) 初始化计票
func (c *call) scheduleVotingRound(r model.Round, projects []model.Project, milestones []model.MilestoneKey) (model.RoundKey, error) {
	type target struct {
		project   model.ProjectKey
		milestone model.MilestoneKey
	}
	var targets []target
	union := make(map[model.MilestoneKey]bool)

	for _, p := range projects {
		if err := requireOpen(p); err != nil {
			return 0, err
		}
		keys := milestones
		if len(keys) == 0 {
			for _, m := range p.Milestones {
				if !m.IsApproved {
					keys = append(keys, m.Key)
				}
			}
		}
		for _, mk := range keys {
			m, ok := p.Milestone(mk)
			if !ok {
				return 0, fail(ErrMilestoneNotFound, "project %d milestone %d", p.Key, mk)
			}
			if m.IsApproved {
				return 0, fail(ErrMilestoneAlreadyApproved, "project %d milestone %d", p.Key, mk)
			}
			targets = append(targets, target{p.Key, mk})
			union[mk] = true
		}
	}
	if len(targets) == 0 {
		return 0, fail(ErrInvalidParam, "no unapproved milestones to vote on")
	}

	for mk := range union {
		r.MilestoneKeys = append(r.MilestoneKeys, mk)
	}
	sort.Slice(r.MilestoneKeys, func(i, j int) bool { return r.MilestoneKeys[i] < r.MilestoneKeys[j] })

	// 先检查再分配编号，避免失败时占用轮次
	for _, t := range targets {
		if err := c.checkMilestoneResubmit(t.project, t.milestone); err != nil {
			return 0, err
		}
	}
	key, err := c.createRound(r)
	if err != nil {
		return 0, err
	}
	for _, t := range targets {
		if err := c.openMilestoneTally(t.project, t.milestone, key); err != nil {
			return 0, err
		}
	}
	return key, nil
}

// scheduleNoConfidenceRound 为每个项目初始化不信任计票
func (c *call) scheduleNoConfidenceRound(r model.Round, projects []model.Project) (model.RoundKey, error) {
	for _, p := range projects {
		if err := requireApproved(p); err != nil {
			return 0, err
		}
		if err := c.checkNoConfidenceLive(p.Key); err != nil {
			return 0, err
		}
	}
	key, err := c.createRound(r)
	if err != nil {
		return 0, err
	}
	for _, p := range projects {
		if err := c.tx.PutNoConfidenceVote(p.Key, model.NoConfidenceVote{RoundKey: key}); err != nil {
			return 0, wrap(ErrStorage, err)
		}
	}
	return key, nil
}

// CancelRound 取消尚未开始的轮次
func (e *Engine) CancelRound(admin model.AccountID, key model.RoundKey) error {
	return e.execute("cancel_round", func(c *call) error {
		if err := c.requireAuthority(admin); err != nil {
			return err
		}
		r, err := c.round(key)
		if err != nil {
			return err
		}
		if r.IsCanceled {
			return fail(ErrRoundCanceled, "round %d", key)
		}
		if c.now >= r.Start {
			return fail(ErrRoundStarted, "round %d started at %d", key, r.Start)
		}

		r.IsCanceled = true
		if err := c.putRound(r); err != nil {
			return err
		}

		ev := c.newEvent(event.TypeRoundCancelled, r.ProjectKeys[0]).WithRound(key)
		ev.Account = admin
		ev.Round = &r
		c.emit(ev)
		return nil
	})
}

// latestRoundFor 从最新的轮次向前查找第一个未取消、类型匹配、包含项目且窗口覆盖 h 的轮次
func latestRoundFor(tx *store.Tx, project model.ProjectKey, h model.BlockNumber, t model.RoundType, accept func(model.Round) bool) (model.Round, bool, error) {
	count, err := tx.RoundCount()
	if err != nil {
		return model.Round{}, false, wrap(ErrStorage, err)
	}
	for k := count; k > 0; k-- {
		r, ok, err := tx.Round(model.RoundKey(k - 1))
		if err != nil {
			return model.Round{}, false, wrap(ErrStorage, err)
		}
		if !ok || r.IsCanceled || r.Type != t || !r.HasProject(project) || !r.IsOpenAt(h) {
			continue
		}
		if accept != nil && !accept(r) {
			continue
		}
		return r, true, nil
	}
	return model.Round{}, false, nil
}

// LatestRoundFor 返回项目在高度 h 上的活动轮次
func (e *Engine) LatestRoundFor(project model.ProjectKey, h model.BlockNumber, t model.RoundType) (model.Round, error) {
	var round model.Round
	err := e.view(func(tx *store.Tx) error {
		r, ok, err := latestRoundFor(tx, project, h, t, nil)
		if err != nil {
			return err
		}
		if !ok {
			return fail(ErrNoActiveRound, "project %d has no open %s round at %d", project, t, h)
		}
		round = r
		return nil
	})
	return round, err
}

// resolveOpenRound 解析调用方指定或默认的轮次，并要求其为包含项目的开放轮次
func (c *call) resolveOpenRound(key *model.RoundKey, project model.ProjectKey, t model.RoundType, accept func(model.Round) bool) (model.Round, error) {
	if key == nil {
		r, ok, err := latestRoundFor(c.tx, project, c.now, t, accept)
		if err != nil {
			return r, err
		}
		if !ok {
			return r, fail(ErrNoActiveRound, "project %d has no open %s round at %d", project, t, c.now)
		}
		return r, nil
	}

	r, err := c.round(*key)
	if err != nil {
		return r, err
	}
	switch {
	case r.Type != t:
		return r, fail(ErrWrongRoundType, "round %d is %s, want %s", r.Key, r.Type, t)
	case r.IsCanceled:
		return r, fail(ErrRoundCanceled, "round %d", r.Key)
	case !r.HasProject(project):
		return r, fail(ErrProjectNotInRound, "project %d round %d", project, r.Key)
	case !r.IsOpenAt(c.now):
		return r, fail(ErrNoActiveRound, "round %d window [%d, %d) does not contain %d", r.Key, r.Start, r.End, c.now)
	}
	return r, nil
}
