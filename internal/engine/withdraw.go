package engine

import (
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// WithdrawResult 一次提现的金额拆分
type WithdrawResult struct {
	Gross model.Balance `json:"gross"`
	Fee   model.Balance `json:"fee"`
	Net   model.Balance `json:"net"`
}

// Withdraw 发起人提取已批准里程碑解锁的资金，平台费转入国库
func (e *Engine) Withdraw(initiator model.AccountID, project model.ProjectKey) (WithdrawResult, error) {
	var res WithdrawResult
	err := e.execute("withdraw", func(c *call) error {
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

		unlocked, ok := p.RaisedFunds.MulDiv(p.ApprovedPercentage(), 100)
		if !ok {
			return fail(ErrOverflow, "unlocked funds of project %d", project)
		}
		available, ok := unlocked.Sub(p.WithdrawnFunds)
		if !ok || available == 0 {
			return fail(ErrNothingToWithdraw, "project %d unlocked %d withdrawn %d", project, unlocked, p.WithdrawnFunds)
		}

		escrow := c.e.EscrowAccount(project)
		if balance := c.e.ledger.Balance(p.Currency, escrow); balance < available {
			return fail(ErrInsufficientEscrow, "escrow holds %d, need %d", balance, available)
		}

		fee, ok := available.MulDiv(c.e.cfg.FeePercent, 100)
		if !ok {
			return fail(ErrOverflow, "withdrawal fee")
		}
		net := available - fee
		withdrawn, ok := p.WithdrawnFunds.Add(available)
		if !ok {
			return fail(ErrOverflow, "withdrawn funds of project %d", project)
		}

		if err := c.transfer(p.Currency, escrow, initiator, net); err != nil {
			return err
		}
		if err := c.transfer(p.Currency, escrow, c.e.cfg.Treasury, fee); err != nil {
			return err
		}

		p = p.Clone()
		p.WithdrawnFunds = withdrawn
		if err := c.putProject(p); err != nil {
			return err
		}
		res = WithdrawResult{Gross: available, Fee: fee, Net: net}

		ev := c.newEvent(event.TypeProjectFundsWithdrawn, project).WithProject(p)
		ev.Account = initiator
		ev.Amount = net
		ev.Fee = fee
		ev.Currency = p.Currency
		c.emit(ev)
		return nil
	})
	if err != nil {
		return WithdrawResult{}, err
	}

	logger.Info("Project %d withdrew %d (fee %d)", project, res.Gross, res.Fee)
	return res, nil
}
