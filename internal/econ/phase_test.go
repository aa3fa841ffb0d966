package econ

import (
	"testing"
	"time"

	"github.com/swarooppatilx/pledge/internal/model"
)

func TestNeedsFinalization_DeadlinePassedGoalUnmet(t *testing.T) {
	s := fundingSnap() // raised 0 of 10
	afterDeadline := s.Deadline.Add(time.Hour)

	if !NeedsFinalization(s, afterDeadline) {
		t.Error("expired unmet pledge should need finalization")
	}
	// The stored phase still reports Funding until the ledger flips it.
	if s.Phase != model.PhaseFunding {
		t.Errorf("stored phase should remain %q, got %q", model.PhaseFunding, s.Phase)
	}
}

func TestNeedsFinalization_BeforeDeadline(t *testing.T) {
	s := fundingSnap()
	if NeedsFinalization(s, s.Deadline.Add(-time.Hour)) {
		t.Error("live funding pledge should not need finalization")
	}
}

func TestNeedsFinalization_GoalReached(t *testing.T) {
	s := fundingSnap()
	s.TotalRaised = s.FundingGoal

	// A fully-raised pledge is awaiting the Active transition, not a
	// failure finalization.
	if NeedsFinalization(s, s.Deadline.Add(time.Hour)) {
		t.Error("goal-reached pledge should not be flagged as failed")
	}
}

func TestNeedsFinalization_TerminalPhases(t *testing.T) {
	for _, phase := range []model.Phase{model.PhaseActive, model.PhaseFailed} {
		s := fundingSnap()
		s.Phase = phase
		if NeedsFinalization(s, s.Deadline.Add(time.Hour)) {
			t.Errorf("phase %q is terminal, nothing to finalize", phase)
		}
	}
}

func TestGoalReached_ExactBoundary(t *testing.T) {
	s := fundingSnap()

	s.TotalRaised = s.FundingGoal
	if !GoalReached(s) {
		t.Error("raised == goal should reach the goal")
	}

	s.TotalRaised = s.FundingGoal.SubRaw(1)
	if GoalReached(s) {
		t.Error("one base unit short should not reach the goal")
	}
}

func TestContributionOpen(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	s := fundingSnap()
	if !ContributionOpen(s, now) {
		t.Error("live funding pledge should accept contributions")
	}

	// Stale Funding phase after the deadline must not present as
	// actionable.
	if ContributionOpen(s, s.Deadline.Add(time.Minute)) {
		t.Error("expired pledge should not accept contributions")
	}

	s.TotalRaised = s.FundingGoal
	if ContributionOpen(s, now) {
		t.Error("goal-reached pledge should not accept contributions")
	}

	s = fundingSnap()
	s.Phase = model.PhaseActive
	if ContributionOpen(s, now) {
		t.Error("active pledge should not accept contributions")
	}
}
