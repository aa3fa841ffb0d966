package econ

import (
	"cosmossdk.io/math"

	"github.com/swarooppatilx/pledge/internal/model"
)

// HarvestSplit is the holder/protocol division of one harvest.
// HolderShare + ProtocolShare equals the harvested amount exactly.
type HarvestSplit struct {
	HolderShare   math.Int `json:"holder_share"`
	ProtocolShare math.Int `json:"protocol_share"`
}

// SplitHarvest divides accrued yield 80% to circulating-share holders
// and 20% to the protocol. The protocol side is computed by
// subtraction, not a second multiplication, so the two parts always
// sum to the input with no rounding leakage.
func SplitHarvest(accruedYield math.Int) (HarvestSplit, error) {
	if accruedYield.IsNil() || accruedYield.IsNegative() {
		return HarvestSplit{}, ErrNegativeAmount
	}
	holder := accruedYield.Mul(HolderYieldBps).Quo(BpsDenom)
	return HarvestSplit{
		HolderShare:   holder,
		ProtocolShare: accruedYield.Sub(holder),
	}, nil
}

// HarvestAvailable reports whether the harvest action should be
// offered. The threshold gates only the action: yield below it is still
// accrued, computed, and displayed.
func HarvestAvailable(s model.PledgeSnapshot) bool {
	return !s.AccruedYield.IsNil() && s.AccruedYield.GTE(MinHarvestAmount)
}

// DividendShare returns one holder's cut of a dividend deposit,
// pro-rata by circulating-share ownership at the time of the deposit.
// The deposit's embedded snapshot is the only legitimate denominator:
// reusing a later snapshot silently shifts payouts whenever treasury
// shares have moved since the deposit.
//
// The full-precision ratio (balance × amount / circulating) is used
// rather than the display-rounded basis-point ownership.
func DividendShare(deposit model.DividendDeposit, shareBalance math.Int) math.Int {
	if shareBalance.IsNil() || shareBalance.IsNegative() ||
		deposit.Amount.IsNil() || deposit.Amount.IsNegative() {
		return math.ZeroInt()
	}
	return quoOrZero(
		shareBalance.Mul(deposit.Amount),
		CirculatingSupply(deposit.Snapshot),
	)
}

// PendingRewards returns a holder's unclaimed rewards: the pro-rata cut
// of the current unharvested yield's holder share, plus the holder's
// cut of every recorded dividend deposit (each against its own
// deposit-time snapshot).
func PendingRewards(s model.PledgeSnapshot, shareBalance math.Int, deposits []model.DividendDeposit) math.Int {
	if shareBalance.IsNil() || shareBalance.IsNegative() {
		return math.ZeroInt()
	}
	total := math.ZeroInt()

	split, err := SplitHarvest(s.AccruedYield)
	if err == nil {
		total = total.Add(quoOrZero(
			shareBalance.Mul(split.HolderShare),
			CirculatingSupply(s),
		))
	}

	for _, dep := range deposits {
		total = total.Add(DividendShare(dep, shareBalance))
	}
	return total
}
