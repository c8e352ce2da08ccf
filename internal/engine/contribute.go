package engine

import (
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/model"
)

// Contribute 在开放的募资轮中向项目托管账户贡献资金
//
// roundKey 为 nil 时使用项目当前开放的最新募资轮。
func (e *Engine) Contribute(contributor model.AccountID, roundKey *model.RoundKey, project model.ProjectKey, amount model.Balance) error {
	return e.execute("contribute", func(c *call) error {
		if amount == 0 {
			return fail(ErrInvalidAmount, "contribution")
		}
		p, err := c.project(project)
		if err != nil {
			return err
		}
		if err := requireOpen(p); err != nil {
			return err
		}
		if p.ApprovedForFunding {
			return fail(ErrProjectAlreadyApproved, "project %d no longer accepts contributions", project)
		}

		r, err := c.resolveOpenRound(roundKey, project, model.RoundTypeContribution, nil)
		if err != nil {
			return err
		}

		existing, _ := p.ContributionOf(contributor)
		total, ok := existing.Value.Add(amount)
		if !ok {
			return fail(ErrOverflow, "contribution of %s", contributor.Hex())
		}
		raised, ok := p.RaisedFunds.Add(amount)
		if !ok {
			return fail(ErrOverflow, "raised funds of project %d", project)
		}

		whitelist, listed, err := c.tx.Whitelist(project)
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if listed {
			entry, ok := whitelist.Lookup(contributor)
			if !ok {
				return fail(ErrNotWhitelisted, "%s on project %d", contributor.Hex(), project)
			}
			if entry.MaxCap != 0 && total > entry.MaxCap {
				return fail(ErrWhitelistCapExceeded, "%d > cap %d", total, entry.MaxCap)
			}
		}

		if err := c.transfer(p.Currency, contributor, c.e.EscrowAccount(project), amount); err != nil {
			return err
		}

		p = p.Clone()
		p.SetContribution(model.Contribution{
			Account:                   contributor,
			Value:                     total,
			LastContributionTimestamp: c.now,
		})
		p.RaisedFunds = raised
		if p.RaisedFunds >= p.RequiredFunds {
			p.FundingThresholdMet = true
		}
		if err := c.putProject(p); err != nil {
			return err
		}

		ev := c.newEvent(event.TypeContributeSucceeded, project).WithRound(r.Key).WithProject(p)
		ev.Account = contributor
		ev.Amount = amount
		ev.Currency = p.Currency
		c.emit(ev)
		return nil
	})
}
