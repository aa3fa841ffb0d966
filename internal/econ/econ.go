// Package econ implements the pledge economics engine: the pure
// computation layer that derives prices, ownership, redeemable values,
// yield splits, and treasury-stock economics from a PledgeSnapshot.
//
// Every function is a side-effect-free transformation of its inputs.
// Nothing here performs I/O, caches, or retains state between calls, so
// the package is safe to call concurrently without synchronization.
//
// All shares and currency are integers scaled by 10^18 (cosmossdk.io
// math.Int). Division truncates toward zero, which is the conservative,
// holder-protective rounding: amounts paid out to a holder floor down,
// and amounts owed to the treasury floor down with any buffer applied
// by the caller, never by the engine.
package econ

import (
	"errors"

	"cosmossdk.io/math"

	"github.com/swarooppatilx/pledge/internal/model"
)

var (
	// Unit is one whole share or currency unit (10^18 base units).
	Unit = math.NewIntWithDecimal(1, 18)

	// TotalSupply is the share supply of every pledge: exactly one
	// million shares, fixed at creation and never changed.
	TotalSupply = math.NewIntWithDecimal(1_000_000, 18)

	// BpsDenom is the basis-point denominator (10_000 = 100%).
	BpsDenom = math.NewInt(10_000)

	// HolderYieldBps is the holder side of a harvest split: 80% of
	// accrued yield goes to circulating-share holders, the remainder
	// to the protocol.
	HolderYieldBps = math.NewInt(8_000)

	// MinHarvestAmount is the advisory threshold (0.001 unit) below
	// which the harvest action is not presented. Accrued yield below
	// the threshold is still computed and reported.
	MinHarvestAmount = math.NewIntWithDecimal(1, 15)
)

// Invariant violations: the ledger or caller supplied corrupt data.
// These are never clamped or guessed around.
var (
	ErrFounderShareOutOfRange = errors.New("econ: founder share must be strictly between 0 and 10000 bps")
	ErrNegativeAmount         = errors.New("econ: amount fields must be non-negative")
	ErrTreasuryExceedsSupply  = errors.New("econ: treasury shares exceed total supply")
	ErrUnknownPhase           = errors.New("econ: unknown phase")
)

// Preview rejections: invalid user input to a simulation. Recoverable;
// the caller shows a validation message and does not submit.
var (
	ErrNonPositiveAmount    = errors.New("econ: amount must be positive")
	ErrAmountExceedsBalance = errors.New("econ: amount exceeds stated balance")
	ErrContributionClosed   = errors.New("econ: pledge is not accepting contributions")
)

// Validate checks snapshot invariants and returns the first violation.
// Degenerate-but-legitimate states (zero circulating supply, zero
// raised, unmet goal) pass validation; only data-integrity breaches
// fail.
func Validate(s model.PledgeSnapshot) error {
	if s.FounderShareBps <= 0 || s.FounderShareBps >= 10_000 {
		return ErrFounderShareOutOfRange
	}
	if !s.Phase.Valid() {
		return ErrUnknownPhase
	}
	for _, v := range []math.Int{
		s.FundingGoal, s.TotalRaised, s.VaultBalance,
		s.TreasuryShares, s.AccruedYield, s.TotalYieldHarvested,
	} {
		if v.IsNil() || v.IsNegative() {
			return ErrNegativeAmount
		}
	}
	if s.TreasuryShares.GT(TotalSupply) {
		return ErrTreasuryExceedsSupply
	}
	return nil
}

// CirculatingSupply returns totalSupply − treasuryShares: the
// denominator for ownership and floor-price math. Zero when every
// share has been redeemed to the treasury, which is a legitimate
// transient state, not an error.
func CirculatingSupply(s model.PledgeSnapshot) math.Int {
	return TotalSupply.Sub(s.TreasuryShares)
}

// quoOrZero divides num by den with floor semantics, returning zero for
// a zero denominator. Zero denominators occur routinely (pre-funding or
// fully-redeemed pledges) and must yield a neutral result rather than a
// fault.
func quoOrZero(num, den math.Int) math.Int {
	if den.IsZero() {
		return math.ZeroInt()
	}
	return num.Quo(den)
}
