package engine

import (
	"github.com/hbulgarini/imbue/internal/model"
	"github.com/hbulgarini/imbue/internal/store"
)

// Project 查询项目
func (e *Engine) Project(key model.ProjectKey) (model.Project, error) {
	var p model.Project
	err := e.view(func(tx *store.Tx) error {
		var ok bool
		var err error
		p, ok, err = tx.Project(key)
		if err != nil {
			return err
		}
		if !ok {
			return fail(ErrProjectNotFound, "project %d", key)
		}
		return nil
	})
	return p, err
}

// Projects 按编号顺序返回全部项目
func (e *Engine) Projects() ([]model.Project, error) {
	var projects []model.Project
	err := e.view(func(tx *store.Tx) error {
		count, err := tx.ProjectCount()
		if err != nil {
			return err
		}
		projects = make([]model.Project, 0, count)
		for k := uint32(0); k < count; k++ {
			p, ok, err := tx.Project(model.ProjectKey(k))
			if err != nil {
				return err
			}
			if ok {
				projects = append(projects, p)
			}
		}
		return nil
	})
	return projects, err
}

// Round 查询轮次
func (e *Engine) Round(key model.RoundKey) (model.Round, error) {
	var r model.Round
	err := e.view(func(tx *store.Tx) error {
		var ok bool
		var err error
		r, ok, err = tx.Round(key)
		if err != nil {
			return err
		}
		if !ok {
			return fail(ErrRoundNotFound, "round %d", key)
		}
		return nil
	})
	return r, err
}

// Rounds 按编号顺序返回全部轮次
func (e *Engine) Rounds() ([]model.Round, error) {
	var rounds []model.Round
	err := e.view(func(tx *store.Tx) error {
		count, err := tx.RoundCount()
		if err != nil {
			return err
		}
		rounds = make([]model.Round, 0, count)
		for k := uint32(0); k < count; k++ {
			r, ok, err := tx.Round(model.RoundKey(k))
			if err != nil {
				return err
			}
			if ok {
				rounds = append(rounds, r)
			}
		}
		return nil
	})
	return rounds, err
}

// MilestoneVote 查询里程碑计票，ok 为 false 表示尚未提交
func (e *Engine) MilestoneVote(project model.ProjectKey, milestone model.MilestoneKey) (vote model.Vote, ok bool, err error) {
	err = e.view(func(tx *store.Tx) error {
		vote, ok, err = tx.MilestoneVote(project, milestone)
		return err
	})
	return vote, ok, err
}

// NoConfidenceVote 查询项目最近一次不信任计票
func (e *Engine) NoConfidenceVote(project model.ProjectKey) (vote model.NoConfidenceVote, ok bool, err error) {
	err = e.view(func(tx *store.Tx) error {
		vote, ok, err = tx.NoConfidenceVote(project)
		return err
	})
	return vote, ok, err
}

// Whitelist 查询项目白名单
func (e *Engine) Whitelist(project model.ProjectKey) (w model.Whitelist, ok bool, err error) {
	err = e.view(func(tx *store.Tx) error {
		w, ok, err = tx.Whitelist(project)
		return err
	})
	return w, ok, err
}

// Params 当前运行参数
func (e *Engine) Params() (model.Params, error) {
	params := e.cfg.DefaultParams
	err := e.view(func(tx *store.Tx) error {
		p, ok, err := tx.Params()
		if err != nil {
			return err
		}
		if ok {
			params = p
		}
		return nil
	})
	return params, err
}

// ProjectCount 已创建项目数
func (e *Engine) ProjectCount() (uint32, error) {
	var n uint32
	err := e.view(func(tx *store.Tx) error {
		var err error
		n, err = tx.ProjectCount()
		return err
	})
	return n, err
}

// RoundCount 已创建轮次数
func (e *Engine) RoundCount() (uint32, error) {
	var n uint32
	err := e.view(func(tx *store.Tx) error {
		var err error
		n, err = tx.RoundCount()
		return err
	})
	return n, err
}

// NoConfidenceRound 未结算的不信任轮
type NoConfidenceRound struct {
	ProjectKey model.ProjectKey       `json:"project_key"`
	Round      model.Round            `json:"round"`
	Vote       model.NoConfidenceVote `json:"vote"`
}

// LiveNoConfidenceRounds 返回所有未结算且未取消的不信任轮
func (e *Engine) LiveNoConfidenceRounds() ([]NoConfidenceRound, error) {
	var live []NoConfidenceRound
	err := e.view(func(tx *store.Tx) error {
		return tx.ForEachNoConfidenceVote(func(p model.ProjectKey, v model.NoConfidenceVote) error {
			if v.Finalised {
				return nil
			}
			r, ok, err := tx.Round(v.RoundKey)
			if err != nil {
				return err
			}
			if !ok || r.IsCanceled {
				return nil
			}
			live = append(live, NoConfidenceRound{ProjectKey: p, Round: r, Vote: v})
			return nil
		})
	})
	return live, err
}
