// Package rank provides order-preserving aggregation over collections
// of pledge snapshots and holder positions: totals, leaderboards, and
// filter predicates. Everything here is pure; callers truncate or page
// the full sorted sequences themselves.
package rank

import (
	"sort"
	"time"

	"cosmossdk.io/math"

	"github.com/swarooppatilx/pledge/internal/econ"
	"github.com/swarooppatilx/pledge/internal/model"
)

// SortKey selects the leaderboard ordering.
type SortKey string

const (
	ByVault       SortKey = "vault"
	ByRaised      SortKey = "raised"
	ByProgress    SortKey = "progress"
	ByCirculating SortKey = "circulating"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case ByVault, ByRaised, ByProgress, ByCirculating:
		return true
	}
	return false
}

// Sort returns a new slice ordered descending by the given key. The
// order is total and deterministic: ties break ascending by pledge
// address, so two runs over the same snapshots always agree. The input
// is never reordered in place.
func Sort(snaps []model.PledgeSnapshot, key SortKey) []model.PledgeSnapshot {
	out := make([]model.PledgeSnapshot, len(snaps))
	copy(out, snaps)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch cmpByKey(a, b, key) {
		case 1:
			return true
		case -1:
			return false
		}
		return a.Address < b.Address
	})
	return out
}

// cmpByKey compares two snapshots on the sort key: 1 if a ranks above
// b, -1 below, 0 tied.
func cmpByKey(a, b model.PledgeSnapshot, key SortKey) int {
	switch key {
	case ByRaised:
		return cmpInt(a.TotalRaised, b.TotalRaised)
	case ByProgress:
		return cmpProgress(a, b)
	case ByCirculating:
		// Total supply is the same constant for every pledge, so the
		// circulating percentage orders exactly as circulating supply.
		return cmpInt(econ.CirculatingSupply(a), econ.CirculatingSupply(b))
	default: // ByVault
		return cmpInt(a.VaultBalance, b.VaultBalance)
	}
}

func cmpInt(a, b math.Int) int {
	switch {
	case a.GT(b):
		return 1
	case a.LT(b):
		return -1
	}
	return 0
}

// cmpProgress compares funding progress ratios raised/goal without
// rounding them first: a1/g1 vs a2/g2 is decided by cross-multiplying
// a1×g2 vs a2×g1. Display-rounded percentages would collapse distinct
// ratios into ties. A zero goal ranks as zero progress.
func cmpProgress(a, b model.PledgeSnapshot) int {
	if a.FundingGoal.IsZero() || b.FundingGoal.IsZero() {
		switch {
		case a.FundingGoal.IsZero() && b.FundingGoal.IsZero():
			return 0
		case a.FundingGoal.IsZero():
			return -1
		}
		return 1
	}
	return cmpInt(a.TotalRaised.Mul(b.FundingGoal), b.TotalRaised.Mul(a.FundingGoal))
}

// Totals are the portfolio-level aggregates over a set of snapshots.
type Totals struct {
	Pledges           int      `json:"pledges"`
	TotalRaised       math.Int `json:"total_raised"`
	TotalVault        math.Int `json:"total_vault"`
	FundingCount      int      `json:"funding_count"`
	ActiveCount       int      `json:"active_count"`
	FailedCount       int      `json:"failed_count"`
	NeedsFinalization int      `json:"needs_finalization"`
}

// Summarize folds a batch of snapshots into totals. Each snapshot is
// judged independently; staleness between siblings is accepted.
func Summarize(snaps []model.PledgeSnapshot, now time.Time) Totals {
	t := Totals{
		Pledges:     len(snaps),
		TotalRaised: math.ZeroInt(),
		TotalVault:  math.ZeroInt(),
	}
	for _, s := range snaps {
		t.TotalRaised = t.TotalRaised.Add(s.TotalRaised)
		t.TotalVault = t.TotalVault.Add(s.VaultBalance)

		switch s.Phase {
		case model.PhaseFunding:
			t.FundingCount++
		case model.PhaseActive:
			t.ActiveCount++
		case model.PhaseFailed:
			t.FailedCount++
		}
		if econ.NeedsFinalization(s, now) {
			t.NeedsFinalization++
		}
	}
	return t
}

// FilterPhase returns the snapshots in the given phase, preserving
// input order.
func FilterPhase(snaps []model.PledgeSnapshot, phase model.Phase) []model.PledgeSnapshot {
	out := make([]model.PledgeSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if s.Phase == phase {
			out = append(out, s)
		}
	}
	return out
}

// FilterNeedsFinalization returns the snapshots whose stored Funding
// phase has lapsed, preserving input order.
func FilterNeedsFinalization(snaps []model.PledgeSnapshot, now time.Time) []model.PledgeSnapshot {
	out := make([]model.PledgeSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if econ.NeedsFinalization(s, now) {
			out = append(out, s)
		}
	}
	return out
}

// Portfolio sums one holder's positions pointwise. No invariants beyond
// being the sum of its inputs.
func Portfolio(holder string, positions []model.HolderPosition) model.PortfolioAggregate {
	agg := model.PortfolioAggregate{
		Holder:           holder,
		Positions:        positions,
		TotalShares:      math.ZeroInt(),
		TotalRedeemable:  math.ZeroInt(),
		TotalPending:     math.ZeroInt(),
		TotalContributed: math.ZeroInt(),
	}
	for _, p := range positions {
		agg.TotalShares = agg.TotalShares.Add(p.ShareBalance)
		agg.TotalRedeemable = agg.TotalRedeemable.Add(p.RedeemableValue)
		agg.TotalPending = agg.TotalPending.Add(p.PendingRewards)
		agg.TotalContributed = agg.TotalContributed.Add(p.Contribution)
	}
	return agg
}
