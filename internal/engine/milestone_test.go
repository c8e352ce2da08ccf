package engine

import (
	"testing"

	"github.com/hbulgarini/imbue/internal/event"
	"github.com/hbulgarini/imbue/internal/model"
)

func TestDoubleVoteRejected(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 600, carol: 400}, 50, 50)
	round, err := h.eng.SubmitMilestone(alice, key, 0)
	if err != nil {
		t.Fatalf("SubmitMilestone: %v", err)
	}

	if err := h.eng.VoteOnMilestone(bob, key, 0, &round, true); err != nil {
		t.Fatalf("VoteOnMilestone: %v", err)
	}
	err = h.eng.VoteOnMilestone(bob, key, 0, &round, false)
	expectErr(t, err, ErrVoteAlreadyExists)
	err = h.eng.VoteOnMilestone(bob, key, 0, nil, true)
	expectErr(t, err, ErrVoteAlreadyExists)

	vote, ok, err := h.eng.MilestoneVote(key, 0)
	if err != nil || !ok {
		t.Fatalf("MilestoneVote: %v %v", ok, err)
	}
	if vote.Yay != 600 || vote.Nay != 0 || vote.RoundKey != round {
		t.Errorf("tally changed by duplicate vote: %+v", vote)
	}
}

func TestOnlyContributorsCanVote(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 600}, 100)
	if _, err := h.eng.SubmitMilestone(alice, key, 0); err != nil {
		t.Fatalf("SubmitMilestone: %v", err)
	}

	err := h.eng.VoteOnMilestone(dave, key, 0, nil, true)
	expectErr(t, err, ErrOnlyContributorsCanVote)
	if kind := err.(*Error).Kind(); kind != KindAuthorization {
		t.Errorf("kind = %v, want authorization", kind)
	}
}

func TestVoteRequiresSubmittedMilestone(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 600}, 50, 50)
	if _, err := h.eng.SubmitMilestone(alice, key, 0); err != nil {
		t.Fatalf("SubmitMilestone: %v", err)
	}

	err := h.eng.VoteOnMilestone(bob, key, 1, nil, true)
	expectErr(t, err, ErrNoActiveRound)
	err = h.eng.VoteOnMilestone(bob, key, 9, nil, true)
	expectErr(t, err, ErrMilestoneNotFound)

	_, err = h.eng.FinaliseMilestoneVoting(alice, key, 1)
	expectErr(t, err, ErrMilestoneNotSubmitted)
}

func TestSubmitMilestoneValidation(t *testing.T) {
	h := newHarness(t)
	key := h.createProject(1000, 100)

	_, err := h.eng.SubmitMilestone(alice, key, 0)
	expectErr(t, err, ErrProjectNotApproved)
	_, err = h.eng.SubmitMilestone(bob, key, 0)
	expectErr(t, err, ErrUserIsNotInitiator)

	funded := h.fundedProject(map[model.AccountID]model.Balance{bob: 100}, 100)
	_, err = h.eng.SubmitMilestone(alice, funded, 3)
	expectErr(t, err, ErrMilestoneNotFound)

	round, err := h.eng.SubmitMilestone(alice, funded, 0)
	if err != nil {
		t.Fatalf("SubmitMilestone: %v", err)
	}
	r, err := h.eng.Round(round)
	if err != nil {
		t.Fatalf("Round: %v", err)
	}
	if r.Type != model.RoundTypeVoting || r.Start != 11 || r.End != 111 ||
		!r.HasProject(funded) || !r.HasMilestone(0) {
		t.Errorf("unexpected voting round %+v", r)
	}
	if ev := h.lastEvent(); ev.Type != event.TypeVotingRoundCreated || *ev.MilestoneKey != 0 {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestApprovedMilestoneIsPermanent(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 600, carol: 400}, 50, 50)
	h.approveMilestone(key, 0, bob)

	_, err := h.eng.SubmitMilestone(alice, key, 0)
	expectErr(t, err, ErrMilestoneAlreadyApproved)
	err = h.eng.VoteOnMilestone(carol, key, 0, nil, false)
	expectErr(t, err, ErrMilestoneAlreadyApproved)
	_, err = h.eng.FinaliseMilestoneVoting(alice, key, 0)
	expectErr(t, err, ErrMilestoneAlreadyApproved)

	_, err = h.eng.ScheduleRound(admin, ScheduleRoundRequest{
		Start: 11, End: 20, ProjectKeys: []model.ProjectKey{key},
		Type: model.RoundTypeVoting, MilestoneKeys: []model.MilestoneKey{0},
	})
	expectErr(t, err, ErrMilestoneAlreadyApproved)

	m, _ := h.project(key).Milestone(0)
	if !m.IsApproved {
		t.Error("milestone lost approval")
	}
	h.checkInvariants()
}

func TestFinaliseWaitsForUndecidedOutcome(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 400, carol: 300, dave: 300}, 100)
	round, err := h.eng.SubmitMilestone(alice, key, 0)
	if err != nil {
		t.Fatalf("SubmitMilestone: %v", err)
	}
	if err := h.eng.VoteOnMilestone(bob, key, 0, nil, true); err != nil {
		t.Fatalf("VoteOnMilestone: %v", err)
	}

	// 剩余 600 仍可改变结果
	_, err = h.eng.FinaliseMilestoneVoting(alice, key, 0)
	expectErr(t, err, ErrVotingNotDecided)
	_, err = h.eng.FinaliseMilestoneVoting(bob, key, 0)
	expectErr(t, err, ErrUserIsNotInitiator)

	r, _ := h.eng.Round(round)
	h.at(r.End)
	err = h.eng.VoteOnMilestone(carol, key, 0, nil, false)
	expectErr(t, err, ErrNoActiveRound)

	approved, err := h.eng.FinaliseMilestoneVoting(alice, key, 0)
	if err != nil {
		t.Fatalf("FinaliseMilestoneVoting: %v", err)
	}
	if !approved {
		t.Error("400 yay with no opposition should pass after the window")
	}
	_, err = h.eng.FinaliseMilestoneVoting(alice, key, 0)
	expectErr(t, err, ErrMilestoneAlreadyApproved)
	h.checkInvariants()
}

func TestTiedMilestoneVoteRejectsAndAllowsRetry(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 500, carol: 500}, 100)
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
	if approved {
		t.Fatal("tie should reject")
	}
	if ev := h.lastEvent(); ev.Type != event.TypeMilestoneRejected || ev.Yay != 500 || ev.Nay != 500 {
		t.Errorf("unexpected event %+v", ev)
	}
	_, err = h.eng.FinaliseMilestoneVoting(alice, key, 0)
	expectErr(t, err, ErrVoteFinalised)

	_, err = h.eng.Withdraw(alice, key)
	expectErr(t, err, ErrNothingToWithdraw)

	// 被拒后可重新提交，计票清零，之前的投票者可以再投
	h.approveMilestone(key, 0, bob, carol)
	if _, err := h.eng.Withdraw(alice, key); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	h.checkInvariants()
}

func TestResubmitDuringVotingRejectedByDefault(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 600, carol: 400}, 100)
	if _, err := h.eng.SubmitMilestone(alice, key, 0); err != nil {
		t.Fatalf("SubmitMilestone: %v", err)
	}
	_, err := h.eng.SubmitMilestone(alice, key, 0)
	expectErr(t, err, ErrMilestoneVotingInProgress)

	count, err := h.eng.RoundCount()
	if err != nil {
		t.Fatalf("RoundCount: %v", err)
	}
	if count != 2 {
		t.Errorf("round count = %d, want 2", count)
	}
}

func TestResubmitDuringVotingSupersedesRound(t *testing.T) {
	h := newHarness(t)
	key := h.fundedProject(map[model.AccountID]model.Balance{bob: 600, carol: 400}, 100)
	if err := h.eng.SetAllowResubmitDuringVoting(admin, true); err != nil {
		t.Fatalf("SetAllowResubmitDuringVoting: %v", err)
	}

	first, err := h.eng.SubmitMilestone(alice, key, 0)
	if err != nil {
		t.Fatalf("SubmitMilestone: %v", err)
	}
	if err := h.eng.VoteOnMilestone(carol, key, 0, nil, false); err != nil {
		t.Fatalf("VoteOnMilestone: %v", err)
	}

	h.at(20)
	second, err := h.eng.SubmitMilestone(alice, key, 0)
	if err != nil {
		t.Fatalf("SubmitMilestone: %v", err)
	}
	if second == first {
		t.Fatal("resubmission reused the round key")
	}

	old, _ := h.eng.Round(first)
	if !old.IsCanceled {
		t.Error("superseded round not canceled")
	}
	vote, _, _ := h.eng.MilestoneVote(key, 0)
	if vote.RoundKey != second || vote.Yay != 0 || vote.Nay != 0 || vote.Finalised {
		t.Errorf("tally not reset: %+v", vote)
	}

	err = h.eng.VoteOnMilestone(bob, key, 0, &first, true)
	expectErr(t, err, ErrRoundCanceled)
	if err := h.eng.VoteOnMilestone(carol, key, 0, &second, true); err != nil {
		t.Fatalf("VoteOnMilestone: %v", err)
	}
	if err := h.eng.VoteOnMilestone(bob, key, 0, nil, true); err != nil {
		t.Fatalf("VoteOnMilestone: %v", err)
	}
	approved, err := h.eng.FinaliseMilestoneVoting(alice, key, 0)
	if err != nil || !approved {
		t.Fatalf("FinaliseMilestoneVoting: %v %v", approved, err)
	}
	h.checkInvariants()
}

func TestAdminScheduledVotingRound(t *testing.T) {
	h := newHarness(t)
	p1 := h.fundedProject(map[model.AccountID]model.Balance{bob: 600}, 30, 70)
	round, err := h.eng.ScheduleRound(admin, ScheduleRoundRequest{
		Start: 11, End: 30, ProjectKeys: []model.ProjectKey{p1}, Type: model.RoundTypeVoting,
	})
	if err != nil {
		t.Fatalf("ScheduleRound: %v", err)
	}
	r, _ := h.eng.Round(round)
	if len(r.MilestoneKeys) != 2 {
		t.Errorf("voting round should cover every unapproved milestone, got %v", r.MilestoneKeys)
	}
	if ev := h.lastEvent(); ev.Type != event.TypeFundingRoundCreated || ev.Round == nil || ev.Round.Type != model.RoundTypeVoting {
		t.Errorf("unexpected event %+v", ev)
	}

	for _, m := range []model.MilestoneKey{0, 1} {
		if err := h.eng.VoteOnMilestone(bob, p1, m, &round, true); err != nil {
			t.Fatalf("VoteOnMilestone(%d): %v", m, err)
		}
		if _, err := h.eng.FinaliseMilestoneVoting(alice, p1, m); err != nil {
			t.Fatalf("FinaliseMilestoneVoting(%d): %v", m, err)
		}
	}
	if pct := h.project(p1).ApprovedPercentage(); pct != 100 {
		t.Errorf("approved percentage = %d", pct)
	}
	h.checkInvariants()
}

func TestFinaliseBeforeApprovalWaitsForWindow(t *testing.T) {
	h := newHarness(t)
	key := h.createProject(10_000, 100)
	h.schedule(model.RoundTypeContribution, 1, 100, key)
	voting, err := h.eng.ScheduleRound(admin, ScheduleRoundRequest{
		Start: 1, End: 100, ProjectKeys: []model.ProjectKey{key},
		Type: model.RoundTypeVoting, MilestoneKeys: []model.MilestoneKey{0},
	})
	if err != nil {
		t.Fatalf("ScheduleRound: %v", err)
	}

	h.contribute(bob, key, 10)
	if err := h.eng.VoteOnMilestone(bob, key, 0, &voting, true); err != nil {
		t.Fatalf("VoteOnMilestone: %v", err)
	}

	// 只有 bob 贡献时结果看似已定，但募资仍在进行
	h.at(2)
	_, err = h.eng.FinaliseMilestoneVoting(alice, key, 0)
	expectErr(t, err, ErrVotingNotDecided)
	if m, _ := h.project(key).Milestone(0); m.IsApproved {
		t.Fatal("milestone approved while funds were still arriving")
	}

	h.contribute(carol, key, 9_990)
	if err := h.eng.VoteOnMilestone(carol, key, 0, nil, false); err != nil {
		t.Fatalf("VoteOnMilestone: %v", err)
	}

	h.at(100)
	approved, err := h.eng.FinaliseMilestoneVoting(alice, key, 0)
	if err != nil {
		t.Fatalf("FinaliseMilestoneVoting: %v", err)
	}
	if approved {
		t.Error("milestone with 10 yay against 9990 nay should be rejected")
	}
	h.checkInvariants()
}
