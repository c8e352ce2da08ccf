package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/model"
)

func TestMilestoneWithdrawalsWithFee(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 600, carol: 400}, 60, 40)
	h.checkInvariants()

	if _, err := h.eng.SubmitMilestone(alice, key, 0); err != nil {
		t.Fatalf("SubmitMilestone: %v", err)
	}
	if err := h.eng.VoteOnMilestone(bob, key, 0, nil, true); err != nil {
		t.Fatalf("VoteOnMilestone: %v", err)
	}
	if err := h.eng.VoteOnMilestone(carol, key, 0, nil, false); err != nil {
		t.Fatalf("VoteOnMilestone: %v", err)
	}
	approved, err := h.eng.FinaliseMilestoneVoting(alice, key, 0)
	if err != nil {
		t.Fatalf("FinaliseMilestoneVoting: %v", err)
	}
	if !approved {
		t.Fatal("600 yay against 400 nay should pass")
	}

	res, err := h.eng.Withdraw(alice, key)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if diff := cmp.Diff(WithdrawResult{Gross: 600, Fee: 30, Net: 570}, res); diff != "" {
		t.Errorf("first withdrawal (-want +got):\n%s", diff)
	}
	if got := h.balance(alice); got != 570 {
		t.Errorf("initiator balance = %d, want 570", got)
	}
	if got := h.balance(treasury); got != 30 {
		t.Errorf("treasury balance = %d, want 30", got)
	}
	if got := h.escrow(key); got != 400 {
		t.Errorf("escrow = %d, want 400", got)
	}
	ev := h.lastEvent()
	if ev.Type != event.TypeProjectFundsWithdrawn || ev.Amount != 570 || ev.Fee != 30 || ev.Currency != testCurrency {
		t.Errorf("unexpected withdrawal event %+v", ev)
	}
	h.checkInvariants()

	h.approveMilestone(key, 1, bob, carol)
	res, err = h.eng.Withdraw(alice, key)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if diff := cmp.Diff(WithdrawResult{Gross: 400, Fee: 20, Net: 380}, res); diff != "" {
		t.Errorf("second withdrawal (-want +got):\n%s", diff)
	}
	if got := h.escrow(key); got != 0 {
		t.Errorf("escrow = %d, want 0", got)
	}
	if p := h.project(key); p.WithdrawnFunds != 1000 {
		t.Errorf("withdrawn = %d, want 1000", p.WithdrawnFunds)
	}
	h.checkInvariants()
}

func TestWithdrawNothingAvailableLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 1000}, 50, 50)

	before := h.project(key)
	escrow := h.escrow(key)
	events := len(h.events)

	_, err := h.eng.Withdraw(alice, key)
	expectErr(t, err, ErrNothingToWithdraw)

	if diff := cmp.Diff(before, h.project(key), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("project changed (-before +after):\n%s", diff)
	}
	if h.escrow(key) != escrow || h.balance(alice) != 0 || h.balance(treasury) != 0 {
		t.Error("balances changed after rejected withdrawal")
	}
	if len(h.events) != events {
		t.Error("rejected withdrawal published events")
	}

	h.approveMilestone(key, 0, bob)
	if _, err := h.eng.Withdraw(alice, key); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	_, err = h.eng.Withdraw(alice, key)
	expectErr(t, err, ErrNothingToWithdraw)
	h.checkInvariants()
}

func TestWithdrawAuthorization(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 1000}, 100)
	h.approveMilestone(key, 0, bob)

	_, err := h.eng.Withdraw(bob, key)
	expectErr(t, err, ErrUserIsNotInitiator)

	_, err = h.eng.Withdraw(alice, 42)
	expectErr(t, err, ErrProjectNotFound)
}

func TestWithdrawRequiresApproval(t *testing.T) {
	h := newHarness(t)
	key := h.createProject(1000, 100)

	_, err := h.eng.Withdraw(alice, key)
	expectErr(t, err, ErrProjectNotApproved)
}

func TestWithdrawRevertsTransfersOnLedgerFailure(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 1000}, 100)
	h.approveMilestone(key, 0, bob)

	before := h.project(key)
	failTo := treasury
	h.ledger.failTo = &failTo

	_, err := h.eng.Withdraw(alice, key)
	expectErr(t, err, ErrLedger)
	if kind := err.(*Error).Kind(); kind != KindResource {
		t.Errorf("kind = %v, want resource", kind)
	}

	if got := h.balance(alice); got != 0 {
		t.Errorf("initiator kept %d after rollback", got)
	}
	if got := h.escrow(key); got != 1000 {
		t.Errorf("escrow = %d after rollback, want 1000", got)
	}
	if diff := cmp.Diff(before, h.project(key), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("project changed (-before +after):\n%s", diff)
	}

	h.ledger.failTo = nil
	res, err := h.eng.Withdraw(alice, key)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if res.Gross != 1000 || res.Fee != 50 || res.Net != 950 {
		t.Errorf("unexpected result %+v", res)
	}
	h.checkInvariants()
}

func TestWithdrawWithoutFee(t *testing.T) {
	h := newHarness(t)
	h.eng.cfg.FeePercent = 0
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 999}, 33, 67)
	h.approveMilestone(key, 0, bob)

	res, err := h.eng.Withdraw(alice, key)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	// 999*33/100 向下取整
	if res.Gross != 329 || res.Fee != 0 || res.Net != 329 {
		t.Errorf("unexpected result %+v", res)
	}
	h.approveMilestone(key, 1, bob)
	res, err = h.eng.Withdraw(alice, key)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if res.Gross != 670 {
		t.Errorf("second gross = %d, want 670", res.Gross)
	}
	h.checkInvariants()
}
