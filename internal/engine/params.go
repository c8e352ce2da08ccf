package engine

import (
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// updateParams 修改参数并发出 ParamsUpdated
func (e *Engine) updateParams(name string, admin model.AccountID, fn func(p *model.Params) error) error {
	var params model.Params
	err := e.execute(name, func(c *call) error {
		if err := c.requireAuthority(admin); err != nil {
			return err
		}
		params = c.params
		if err := fn(&params); err != nil {
			return err
		}
		if err := c.tx.PutParams(params); err != nil {
			return wrap(ErrStorage, err)
		}

		ev := c.newEvent(event.TypeParamsUpdated, 0)
		ev.Account = admin
		ev.Params = &params
		c.emit(ev)
		return nil
	})
	if err == nil {
		logger.Info("Params updated: %+v", params)
	}
	return err
}

// SetMaxProjectsPerRound 设置单个轮次的项目上限
func (e *Engine) SetMaxProjectsPerRound(admin model.AccountID, n uint32) error {
	return e.updateParams("set_max_projects_per_round", admin, func(p *model.Params) error {
		if n == 0 || n > MaxProjectsPerRoundLimit {
			return fail(ErrInvalidParam, "max projects per round %d not in 1..%d", n, MaxProjectsPerRoundLimit)
		}
		p.MaxProjectsPerRound = n
		return nil
	})
}

// SetIdentityRequired 设置创建项目是否需要身份认证
func (e *Engine) SetIdentityRequired(admin model.AccountID, required bool) error {
	return e.updateParams("set_identity_required", admin, func(p *model.Params) error {
		p.IdentityRequired = required
		return nil
	})
}

// SetAllowResubmitDuringVoting 设置投票期间是否允许重新提交里程碑
func (e *Engine) SetAllowResubmitDuringVoting(admin model.AccountID, allow bool) error {
	return e.updateParams("set_allow_resubmit_during_voting", admin, func(p *model.Params) error {
		p.AllowResubmitDuringVoting = allow
		return nil
	})
}
