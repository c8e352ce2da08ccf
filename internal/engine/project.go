package engine

import (
	"math"

	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/logger"
	"github.com/hbulgarini/imbue/internal/model"
)

// CreateProjectRequest 创建项目参数
type CreateProjectRequest struct {
	Name          string                    `json:"name"`
	Logo          string                    `json:"logo"`
	Description   string                    `json:"description"`
	Website       string                    `json:"website"`
	Milestones    []model.ProposedMilestone `json:"milestones"`
	RequiredFunds model.Balance             `json:"required_funds"`
	Currency      model.CurrencyID          `json:"currency"`
}

// validateCreateProject 验证创建项目请求
func validateCreateProject(req CreateProjectRequest) error {
	fields := []struct {
		name, value string
	}{
		{"name", req.Name},
		{"logo", req.Logo},
		{"description", req.Description},
		{"website", req.Website},
	}
	for _, f := range fields {
		if len(f.value) == 0 || len(f.value) > MaxStringFieldLength {
			return fail(ErrInvalidString, "%s must be 1..%d bytes", f.name, MaxStringFieldLength)
		}
	}

	if len(req.Milestones) == 0 || len(req.Milestones) > MaxMilestonesPerProject {
		return fail(ErrInvalidParam, "milestone count %d not in 1..%d", len(req.Milestones), MaxMilestonesPerProject)
	}
	var total uint64
	for i, m := range req.Milestones {
		if len(m.Name) == 0 || len(m.Name) > MaxStringFieldLength {
			return fail(ErrInvalidString, "milestone %d name must be 1..%d bytes", i, MaxStringFieldLength)
		}
		if m.PercentageToUnlock > 100 {
			return fail(ErrMilestonesNotEqual100, "milestone %d percentage %d exceeds 100", i, m.PercentageToUnlock)
		}
		total += uint64(m.PercentageToUnlock)
	}
	if total != 100 {
		return fail(ErrMilestonesNotEqual100, "got %d", total)
	}

	if req.RequiredFunds == 0 {
		return fail(ErrInvalidAmount, "required funds")
	}
	if req.Currency == "" {
		return fail(ErrInvalidParam, "currency is empty")
	}
	return nil
}

// CreateProject 创建项目
func (e *Engine) CreateProject(initiator model.AccountID, req CreateProjectRequest) (model.ProjectKey, error) {
	var key model.ProjectKey
	err := e.execute("create_project", func(c *call) error {
		if err := validateCreateProject(req); err != nil {
			return err
		}
		if c.params.IdentityRequired && (e.identity == nil || !e.identity.HasSufficientAttestation(initiator)) {
			return fail(ErrIdentityNeeded, "%s", initiator.Hex())
		}

		count, err := c.tx.ProjectCount()
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if count == math.MaxUint32 {
			return fail(ErrOverflow, "project count")
		}
		key = model.ProjectKey(count)

		milestones := make([]model.Milestone, len(req.Milestones))
		for i, m := range req.Milestones {
			milestones[i] = model.Milestone{
				Key:                model.MilestoneKey(i),
				Name:               m.Name,
				PercentageToUnlock: m.PercentageToUnlock,
			}
		}
		project := model.Project{
			Key:           key,
			Name:          req.Name,
			Logo:          req.Logo,
			Description:   req.Description,
			Website:       req.Website,
			Milestones:    milestones,
			Currency:      req.Currency,
			RequiredFunds: req.RequiredFunds,
			Initiator:     initiator,
			CreatedAt:     c.now,
		}

		if err := c.putProject(project); err != nil {
			return err
		}
		if err := c.tx.PutProjectCount(count + 1); err != nil {
			return wrap(ErrStorage, err)
		}

		ev := c.newEvent(event.TypeProjectCreated, key).WithProject(project)
		ev.Account = initiator
		ev.Currency = project.Currency
		ev.Amount = project.RequiredFunds
		c.emit(ev)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Project %d created by %s", key, initiator.Hex())
	return key, nil
}

// AddProjectWhitelist 合并项目白名单条目
func (e *Engine) AddProjectWhitelist(initiator model.AccountID, key model.ProjectKey, entries []model.WhitelistEntry) error {
	return e.execute("add_project_whitelist", func(c *call) error {
		if len(entries) == 0 {
			return fail(ErrInvalidParam, "no whitelist entries")
		}
		p, err := c.project(key)
		if err != nil {
			return err
		}
		if err := requireInitiator(p, initiator); err != nil {
			return err
		}

		current, ok, err := c.tx.Whitelist(key)
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if !ok {
			current = model.Whitelist{ProjectKey: key}
		}
		if err := c.tx.PutWhitelist(current.Merge(entries)); err != nil {
			return wrap(ErrStorage, err)
		}

		ev := c.newEvent(event.TypeWhitelistAdded, key)
		ev.Account = initiator
		ev.Whitelist = append([]model.WhitelistEntry(nil), entries...)
		c.emit(ev)
		return nil
	})
}

// RemoveProjectWhitelist 清除项目白名单，之后任何人都可贡献
func (e *Engine) RemoveProjectWhitelist(initiator model.AccountID, key model.ProjectKey) error {
	return e.execute("remove_project_whitelist", func(c *call) error {
		p, err := c.project(key)
		if err != nil {
			return err
		}
		if err := requireInitiator(p, initiator); err != nil {
			return err
		}

		_, ok, err := c.tx.Whitelist(key)
		if err != nil {
			return wrap(ErrStorage, err)
		}
		if !ok {
			return fail(ErrNoWhitelist, "project %d", key)
		}
		if err := c.tx.DeleteWhitelist(key); err != nil {
			return wrap(ErrStorage, err)
		}

		ev := c.newEvent(event.TypeWhitelistRemoved, key)
		ev.Account = initiator
		c.emit(ev)
		return nil
	})
}
