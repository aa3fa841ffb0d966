package econ

import (
	"time"

	"github.com/swarooppatilx/pledge/internal/model"
)

// GoalReached reports whether the funding goal has been met. The
// Funding → Active transition is triggered by this predicate and may be
// finalized by any party; it is not time-gated.
func GoalReached(s model.PledgeSnapshot) bool {
	return s.TotalRaised.GTE(s.FundingGoal)
}

// NeedsFinalization reports whether a snapshot still flagged Funding
// has already failed in reality: the deadline has passed with the goal
// unmet, and only an external finalize call will flip the stored phase
// to Failed. The snapshot keeps reporting Funding until then, so
// anything gating on phase must consult this predicate as well.
func NeedsFinalization(s model.PledgeSnapshot, now time.Time) bool {
	return s.Phase == model.PhaseFunding &&
		!GoalReached(s) &&
		!now.Before(s.Deadline)
}

// ContributionOpen reports whether a contribution would currently be
// accepted. It is stricter than the stored phase: a pledge whose
// deadline has lapsed or whose goal is already met must not be
// presented as still fundable, even if the ledger has not finalized
// the transition yet.
func ContributionOpen(s model.PledgeSnapshot, now time.Time) bool {
	return s.Phase == model.PhaseFunding &&
		!GoalReached(s) &&
		now.Before(s.Deadline)
}
