// Package model defines the core domain types shared across the pledge
// service. All share and currency amounts are 18-decimal fixed-point
// integers (cosmossdk.io/math.Int) — never float64 for money.
package model

import (
	"time"

	"cosmossdk.io/math"
)

// Phase is the lifecycle state of a pledge as recorded on the ledger.
// Funding is the only non-terminal phase; the transition to Active or
// Failed is applied externally by a ledger finalize call, so a locally
// held snapshot may lag the authoritative phase.
type Phase string

const (
	PhaseFunding Phase = "funding"
	PhaseActive  Phase = "active"
	PhaseFailed  Phase = "failed"
)

// Valid reports whether p is one of the three known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseFunding, PhaseActive, PhaseFailed:
		return true
	}
	return false
}

// PledgeSnapshot is an immutable point-in-time view of one pledge,
// produced by reading the remote equity/vault contract. The engine
// never mutates a snapshot; every derived metric is recomputed from a
// fresh copy, so two calls with the same snapshot return identical
// results.
//
// Total share supply is not a field: it is fixed at one million shares
// for every pledge (econ.TotalSupply).
type PledgeSnapshot struct {
	Address         string    `json:"address" db:"address"`
	Name            string    `json:"name" db:"name"`
	FounderShareBps int64     `json:"founder_share_bps" db:"founder_share_bps"`
	FundingGoal     math.Int  `json:"funding_goal" db:"funding_goal"`
	Deadline        time.Time `json:"deadline" db:"deadline"`
	TotalRaised     math.Int  `json:"total_raised" db:"total_raised"`
	VaultBalance    math.Int  `json:"vault_balance" db:"vault_balance"`
	TreasuryShares  math.Int  `json:"treasury_shares" db:"treasury_shares"`
	Phase           Phase     `json:"phase" db:"phase"`

	// Yield bookkeeping. TotalYieldHarvested is monotonically
	// non-decreasing across the life of a pledge.
	AccruedYield        math.Int `json:"accrued_yield" db:"accrued_yield"`
	TotalYieldHarvested math.Int `json:"total_yield_harvested" db:"total_yield_harvested"`

	// FetchedAt records when this snapshot was read from the ledger.
	FetchedAt time.Time `json:"fetched_at" db:"fetched_at"`
}

// HolderPosition is one holder's derived stake in one pledge. It is
// computed, never stored: the ledger supplies the raw share balance and
// funding-phase contribution, the engine derives the rest.
type HolderPosition struct {
	PledgeAddress string   `json:"pledge_address"`
	Holder        string   `json:"holder"`
	ShareBalance  math.Int `json:"share_balance"`
	Contribution  math.Int `json:"contribution"`

	OwnershipBps    math.Int `json:"ownership_bps"`
	RedeemableValue math.Int `json:"redeemable_value"`
	PendingRewards  math.Int `json:"pending_rewards"`
}

// PortfolioAggregate is the pointwise sum of one holder's positions
// across all pledges. Display composition only; it carries no
// invariants of its own.
type PortfolioAggregate struct {
	Holder           string           `json:"holder"`
	Positions        []HolderPosition `json:"positions"`
	TotalShares      math.Int         `json:"total_shares"`
	TotalRedeemable  math.Int         `json:"total_redeemable"`
	TotalPending     math.Int         `json:"total_pending"`
	TotalContributed math.Int         `json:"total_contributed"`
}

// DividendDeposit records a founder dividend deposit together with the
// snapshot taken at deposit time. Per-holder dividend shares must be
// computed against this embedded snapshot, never against a later one —
// circulating supply at deposit time is what fixes the pro-rata split.
type DividendDeposit struct {
	ID            string         `json:"id" db:"id"`
	PledgeAddress string         `json:"pledge_address" db:"pledge_address"`
	Amount        math.Int       `json:"amount" db:"amount"`
	Snapshot      PledgeSnapshot `json:"snapshot" db:"snapshot"`
	DepositedAt   time.Time      `json:"deposited_at" db:"deposited_at"`
}
