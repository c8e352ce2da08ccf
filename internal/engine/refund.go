package engine

import (
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// Refund 管理员取消项目并按比例退还未提取的资金
func (e *Engine) Refund(admin model.AccountID, project model.ProjectKey) (model.Balance, error) {
	var total model.Balance
	err := e.execute("refund", func(c *call) error {
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
		total, err = c.refundAll(p, admin, model.RefundReasonAdmin)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Project %d refunded %d by authority", project, total)
	return total, nil
}

// refundAll 每个贡献者取回 value*(raised-withdrawn)/raised，项目标记为取消
func (c *call) refundAll(p model.Project, caller model.AccountID, reason model.RefundReason) (model.Balance, error) {
	locked, ok := p.RaisedFunds.Sub(p.WithdrawnFunds)
	if !ok {
		return 0, fail(ErrOverflow, "withdrawn exceeds raised on project %d", p.Key)
	}

	refunds := make([]event.Refund, 0, len(p.Contributions))
	var total model.Balance
	if p.RaisedFunds > 0 {
		for _, contribution := range p.Contributions {
			amount, ok := contribution.Value.MulDiv(uint64(locked), uint64(p.RaisedFunds))
			if !ok {
				return 0, fail(ErrOverflow, "refund of %s", contribution.Account.Hex())
			}
			if amount == 0 {
				continue
			}
			refunds = append(refunds, event.Refund{Account: contribution.Account, Amount: amount})
			total, ok = total.Add(amount)
			if !ok {
				return 0, fail(ErrOverflow, "refund total")
			}
		}
	}

	escrow := c.e.EscrowAccount(p.Key)
	if balance := c.e.ledger.Balance(p.Currency, escrow); balance < total {
		return 0, fail(ErrInsufficientEscrow, "escrow holds %d, need %d", balance, total)
	}
	for _, r := range refunds {
		if err := c.transfer(p.Currency, escrow, r.Account, r.Amount); err != nil {
			return 0, err
		}
	}

	p = p.Clone()
	p.Cancelled = true
	p.RefundedFunds = total
	if err := c.putProject(p); err != nil {
		return 0, err
	}

	// 项目取消后未结算的不信任投票无法再结算，随退款一并关闭
	vote, ok, err := c.tx.NoConfidenceVote(p.Key)
	if err != nil {
		return 0, wrap(ErrStorage, err)
	}
	if ok && !vote.Finalised {
		vote.Finalised = true
		if err := c.tx.PutNoConfidenceVote(p.Key, vote); err != nil {
			return 0, wrap(ErrStorage, err)
		}
	}

	ev := c.newEvent(event.TypeProjectLockedFundsRefunded, p.Key).WithProject(p)
	ev.Account = caller
	ev.Amount = total
	ev.Currency = p.Currency
	ev.Refunds = refunds
	ev.Reason = string(reason)
	c.emit(ev)
	return total, nil
}
