package engine

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hbulgarini/imbue/internal/chain"
	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/identity"
	"github.com/hbulgarini/imbue/internal/ledger"
	"github.com/hbulgarini/imbue/internal/model"
	"github.com/hbulgarini/imbue/internal/store"
)

const testCurrency model.CurrencyID = "DOT"

var (
	admin    = common.HexToAddress("0xad")
	treasury = common.HexToAddress("0x7e")
	alice    = common.HexToAddress("0xa1")
	bob      = common.HexToAddress("0xb0")
	carol    = common.HexToAddress("0xc0")
	dave     = common.HexToAddress("0xd0")
)

// testLedger 内存账本，可指定转入某账户时失败
type testLedger struct {
	*ledger.Memory
	failTo *model.AccountID
}

func (l *testLedger) Transfer(currency model.CurrencyID, from, to model.AccountID, amount model.Balance) error {
	if l.failTo != nil && *l.failTo == to {
		return errors.New("transfer refused")
	}
	return l.Memory.Transfer(currency, from, to, amount)
}

type harness struct {
	t      *testing.T
	eng    *Engine
	store  *store.Store
	ledger *testLedger
	clock  *chain.LocalClock
	ids    *identity.Registry
	events []event.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	h := &harness{
		t:      t,
		store:  st,
		ledger: &testLedger{Memory: ledger.NewMemory()},
		clock:  chain.NewLocalClock(1),
		ids:    identity.NewRegistry(),
	}
	for _, acct := range []model.AccountID{bob, carol, dave} {
		if err := h.ledger.Deposit(testCurrency, acct, 1_000_000); err != nil {
			t.Fatalf("Deposit: %v", err)
		}
	}

	cfg := DefaultConfig()
	cfg.Authority = admin
	cfg.Treasury = treasury
	h.eng, err = New(cfg, st, h.ledger, h.ids, h.clock, event.PublisherFunc(func(evs []event.Event) {
		h.events = append(h.events, evs...)
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func (h *harness) at(height model.BlockNumber) {
	h.clock.Set(height)
}

func (h *harness) balance(acct model.AccountID) model.Balance {
	return h.ledger.Balance(testCurrency, acct)
}

func (h *harness) escrow(key model.ProjectKey) model.Balance {
	return h.balance(h.eng.EscrowAccount(key))
}

func (h *harness) project(key model.ProjectKey) model.Project {
	h.t.Helper()
	p, err := h.eng.Project(key)
	if err != nil {
		h.t.Fatalf("Project(%d): %v", key, err)
	}
	return p
}

func (h *harness) createProject(required model.Balance, percentages ...uint32) model.ProjectKey {
	h.t.Helper()
	req := CreateProjectRequest{
		Name:          "solar",
		Logo:          "logo.png",
		Description:   "community panels",
		Website:       "https://example.org",
		RequiredFunds: required,
		Currency:      testCurrency,
	}
	for _, pct := range percentages {
		req.Milestones = append(req.Milestones, model.ProposedMilestone{Name: "step", PercentageToUnlock: pct})
	}
	key, err := h.eng.CreateProject(alice, req)
	if err != nil {
		h.t.Fatalf("CreateProject: %v", err)
	}
	return key
}

func (h *harness) schedule(t model.RoundType, start, end model.BlockNumber, projects ...model.ProjectKey) model.RoundKey {
	h.t.Helper()
	key, err := h.eng.ScheduleRound(admin, ScheduleRoundRequest{
		Start:       start,
		End:         end,
		ProjectKeys: projects,
		Type:        t,
	})
	if err != nil {
		h.t.Fatalf("ScheduleRound: %v", err)
	}
	return key
}

func (h *harness) contribute(acct model.AccountID, key model.ProjectKey, amount model.Balance) {
	h.t.Helper()
	if err := h.eng.Contribute(acct, nil, key, amount); err != nil {
		h.t.Fatalf("Contribute(%s, %d): %v", acct.Hex(), amount, err)
	}
}

// fundedProject 创建项目，在 [1, 10) 募资轮中按 pledges 贡献，在高度 11 批准
func (h *harness) fundedProject(pledges map[model.AccountID]model.Balance, percentages ...uint32) model.ProjectKey {
	h.t.Helper()
	var required model.Balance
	for _, v := range pledges {
		required += v
	}
	key := h.createProject(required, percentages...)
	h.schedule(model.RoundTypeContribution, 1, 10, key)
	for _, acct := range []model.AccountID{bob, carol, dave} {
		if v, ok := pledges[acct]; ok {
			h.contribute(acct, key, v)
		}
	}
	h.at(11)
	if err := h.eng.Approve(admin, nil, key, nil); err != nil {
		h.t.Fatalf("Approve: %v", err)
	}
	return key
}

func (h *harness) approveMilestone(key model.ProjectKey, m model.MilestoneKey, voters ...model.AccountID) {
	h.t.Helper()
	if _, err := h.eng.SubmitMilestone(alice, key, m); err != nil {
		h.t.Fatalf("SubmitMilestone: %v", err)
	}
	for _, v := range voters {
		if err := h.eng.VoteOnMilestone(v, key, m, nil, true); err != nil {
			h.t.Fatalf("VoteOnMilestone: %v", err)
		}
	}
	approved, err := h.eng.FinaliseMilestoneVoting(alice, key, m)
	if err != nil {
		h.t.Fatalf("FinaliseMilestoneVoting: %v", err)
	}
	if !approved {
		h.t.Fatalf("milestone %d not approved", m)
	}
}

// checkInvariants 校验每个项目的资金守恒关系
func (h *harness) checkInvariants() {
	h.t.Helper()
	projects, err := h.eng.Projects()
	if err != nil {
		h.t.Fatalf("Projects: %v", err)
	}
	for _, p := range projects {
		sum, ok := p.TotalContributions()
		if !ok || sum != p.RaisedFunds {
			h.t.Errorf("project %d: raised %d != sum of contributions %d", p.Key, p.RaisedFunds, sum)
		}
		if p.FundingThresholdMet != (p.RaisedFunds >= p.RequiredFunds) {
			h.t.Errorf("project %d: threshold flag %v with raised %d required %d",
				p.Key, p.FundingThresholdMet, p.RaisedFunds, p.RequiredFunds)
		}
		unlocked, _ := p.RaisedFunds.MulDiv(p.ApprovedPercentage(), 100)
		if p.WithdrawnFunds > unlocked {
			h.t.Errorf("project %d: withdrawn %d exceeds unlocked %d", p.Key, p.WithdrawnFunds, unlocked)
		}
		if p.WithdrawnFunds+p.RefundedFunds > p.RaisedFunds {
			h.t.Errorf("project %d: withdrawn %d + refunded %d exceed raised %d",
				p.Key, p.WithdrawnFunds, p.RefundedFunds, p.RaisedFunds)
		}
		want := p.RaisedFunds - p.WithdrawnFunds - p.RefundedFunds
		if got := h.escrow(p.Key); got != want {
			h.t.Errorf("project %d: escrow holds %d, want %d", p.Key, got, want)
		}
		if p.ApprovedPercentage() > 100 {
			h.t.Errorf("project %d: approved percentage %d", p.Key, p.ApprovedPercentage())
		}
	}
}

func (h *harness) lastEvent() event.Event {
	h.t.Helper()
	if len(h.events) == 0 {
		h.t.Fatal("no events published")
	}
	return h.events[len(h.events)-1]
}

func (h *harness) eventTypes() []event.Type {
	types := make([]event.Type, len(h.events))
	for i, ev := range h.events {
		types[i] = ev.Type
	}
	return types
}

func expectErr(t *testing.T, err error, want *Error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", want.Code)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want.Code, err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer st.Close()

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no authority", func(c *Config) { c.Authority = model.ZeroAccount }},
		{"fee without treasury", func(c *Config) { c.Treasury = model.ZeroAccount }},
		{"fee above 100", func(c *Config) { c.FeePercent = 101 }},
		{"zero voting window", func(c *Config) { c.MilestoneVotingWindow = 0 }},
		{"zero pass percent", func(c *Config) { c.NoConfidencePassPercent = 0 }},
		{"max projects above limit", func(c *Config) { c.DefaultParams.MaxProjectsPerRound = MaxProjectsPerRoundLimit + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Authority = admin
			cfg.Treasury = treasury
			tt.mutate(&cfg)
			if _, err := New(cfg, st, ledger.NewMemory(), nil, chain.NewLocalClock(0), nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewWritesDefaultParams(t *testing.T) {
	h := newHarness(t)
	params, err := h.eng.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if params.MaxProjectsPerRound != 5 || params.IdentityRequired || params.AllowResubmitDuringVoting {
		t.Errorf("unexpected default params %+v", params)
	}
}
