package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/model"
)

func TestContributionsAccumulate(t *testing.T) {
	h := newHarness(t)
	key := h.createProject(500, 100)
	round := h.schedule(model.RoundTypeContribution, 1, 10, key)

	h.contribute(bob, key, 100)
	h.at(3)
	h.contribute(bob, key, 200)
	h.contribute(carol, key, 250)

	p := h.project(key)
	want := []model.Contribution{
		{Account: bob, Value: 300, LastContributionTimestamp: 3},
		{Account: carol, Value: 250, LastContributionTimestamp: 3},
	}
	if diff := cmp.Diff(want, p.Contributions); diff != "" {
		t.Errorf("contributions (-want +got):\n%s", diff)
	}
	if p.RaisedFunds != 550 || !p.FundingThresholdMet {
		t.Errorf("raised %d threshold %v", p.RaisedFunds, p.FundingThresholdMet)
	}
	if got := h.balance(bob); got != 1_000_000-300 {
		t.Errorf("bob balance = %d", got)
	}

	ev := h.lastEvent()
	if ev.Type != event.TypeContributeSucceeded || ev.Account != carol || ev.Amount != 250 ||
		ev.RoundKey == nil || *ev.RoundKey != round || ev.Height != 3 {
		t.Errorf("unexpected event %+v", ev)
	}
	h.checkInvariants()
}

func TestContributionThresholdFlag(t *testing.T) {
	h := newHarness(t)
	key := h.createProject(1000, 100)
	h.schedule(model.RoundTypeContribution, 1, 10, key)

	h.contribute(bob, key, 999)
	if h.project(key).FundingThresholdMet {
		t.Error("threshold met below required funds")
	}
	h.contribute(carol, key, 1)
	if !h.project(key).FundingThresholdMet {
		t.Error("threshold not met at required funds")
	}
	h.checkInvariants()
}

func TestContributionOutsideOpenRound(t *testing.T) {
	h := newHarness(t)
	key := h.createProject(1000, 100)
	other := h.createProject(1000, 100)
	round := h.schedule(model.RoundTypeContribution, 5, 10, key)
	otherRound := h.schedule(model.RoundTypeContribution, 1, 10, other)

	// 窗口尚未开始
	err := h.eng.Contribute(bob, nil, key, 100)
	expectErr(t, err, ErrNoActiveRound)
	err = h.eng.Contribute(bob, &round, key, 100)
	expectErr(t, err, ErrNoActiveRound)

	// 轮次不包含该项目
	h.at(5)
	err = h.eng.Contribute(bob, &otherRound, key, 100)
	expectErr(t, err, ErrProjectNotInRound)

	missing := model.RoundKey(99)
	err = h.eng.Contribute(bob, &missing, key, 100)
	expectErr(t, err, ErrRoundNotFound)

	if err := h.eng.Contribute(bob, &round, key, 100); err != nil {
		t.Fatalf("Contribute: %v", err)
	}

	// 结束高度不在窗口内
	h.at(10)
	err = h.eng.Contribute(bob, nil, key, 100)
	expectErr(t, err, ErrNoActiveRound)

	if p := h.project(key); p.RaisedFunds != 100 {
		t.Errorf("raised = %d, want 100", p.RaisedFunds)
	}
	if got := h.balance(bob); got != 1_000_000-100 {
		t.Errorf("bob balance = %d", got)
	}
	h.checkInvariants()
}

func TestContributionValidation(t *testing.T) {
	h := newHarness(t)
	key := h.createProject(1000, 100)
	h.schedule(model.RoundTypeContribution, 1, 10, key)

	err := h.eng.Contribute(bob, nil, key, 0)
	expectErr(t, err, ErrInvalidAmount)

	err = h.eng.Contribute(bob, nil, 7, 10)
	expectErr(t, err, ErrProjectNotFound)

	poor := model.AccountID{0x99}
	err = h.eng.Contribute(poor, nil, key, 10)
	expectErr(t, err, ErrLedger)

	if p := h.project(key); p.RaisedFunds != 0 || len(p.Contributions) != 0 {
		t.Errorf("rejected contributions changed project: %+v", p)
	}
}

func TestContributionToVotingRoundRejected(t *testing.T) {
	h := newHarness(t)
	key := h.createProject(1000, 100)
	voting, err := h.eng.ScheduleRound(admin, ScheduleRoundRequest{
		Start: 1, End: 10, ProjectKeys: []model.ProjectKey{key}, Type: model.RoundTypeVoting,
	})
	if err != nil {
		t.Fatalf("ScheduleRound: %v", err)
	}

	err = h.eng.Contribute(bob, &voting, key, 10)
	expectErr(t, err, ErrWrongRoundType)
	err = h.eng.Contribute(bob, nil, key, 10)
	expectErr(t, err, ErrNoActiveRound)
}

func TestContributionAfterApprovalRejected(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 100}, 100)
	h.schedule(model.RoundTypeContribution, 11, 20, key)

	err := h.eng.Contribute(carol, nil, key, 10)
	expectErr(t, err, ErrProjectAlreadyApproved)
	h.checkInvariants()
}

func TestWhitelist(t *testing.T) {
	h := newHarness(t)
	key := h.createProject(1000, 100)
	h.schedule(model.RoundTypeContribution, 1, 10, key)

	err := h.eng.AddProjectWhitelist(bob, key, []model.WhitelistEntry{{Account: bob}})
	expectErr(t, err, ErrUserIsNotInitiator)
	err = h.eng.AddProjectWhitelist(alice, key, nil)
	expectErr(t, err, ErrInvalidParam)

	err = h.eng.AddProjectWhitelist(alice, key, []model.WhitelistEntry{
		{Account: bob, MaxCap: 500},
		{Account: dave},
	})
	if err != nil {
		t.Fatalf("AddProjectWhitelist: %v", err)
	}

	err = h.eng.Contribute(carol, nil, key, 10)
	expectErr(t, err, ErrNotWhitelisted)

	h.contribute(bob, key, 400)
	err = h.eng.Contribute(bob, nil, key, 101)
	expectErr(t, err, ErrWhitelistCapExceeded)
	h.contribute(bob, key, 100)
	h.contribute(dave, key, 5000)

	// 合并后覆盖额度
	if err := h.eng.AddProjectWhitelist(alice, key, []model.WhitelistEntry{{Account: bob, MaxCap: 600}}); err != nil {
		t.Fatalf("AddProjectWhitelist: %v", err)
	}
	h.contribute(bob, key, 100)
	w, ok, err := h.eng.Whitelist(key)
	if err != nil || !ok {
		t.Fatalf("Whitelist: %v %v", ok, err)
	}
	if len(w.Entries) != 2 {
		t.Errorf("entries = %+v", w.Entries)
	}

	if err := h.eng.RemoveProjectWhitelist(alice, key); err != nil {
		t.Fatalf("RemoveProjectWhitelist: %v", err)
	}
	h.contribute(carol, key, 10)
	err = h.eng.RemoveProjectWhitelist(alice, key)
	expectErr(t, err, ErrNoWhitelist)

	if p := h.project(key); p.RaisedFunds != 5610 {
		t.Errorf("raised = %d, want 5610", p.RaisedFunds)
	}
	h.checkInvariants()
}
