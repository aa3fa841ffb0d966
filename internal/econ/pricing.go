package econ

import (
	"cosmossdk.io/math"

	"github.com/swarooppatilx/pledge/internal/model"
)

// PublicShares returns the share allocation sold to the public during
// funding: totalSupply × (10000 − founderShareBps) / 10000.
func PublicShares(s model.PledgeSnapshot) math.Int {
	publicBps := BpsDenom.Sub(math.NewInt(s.FounderShareBps))
	return TotalSupply.Mul(publicBps).Quo(BpsDenom)
}

// ICOPrice returns the fixed funding-phase price per whole share,
// fundingGoal / publicShares, scaled by Unit. Zero if the public
// allocation is empty.
//
// The price is always derived from the funding goal, never from the
// amount actually raised, so an over-subscribed pledge does not move
// the price.
func ICOPrice(s model.PledgeSnapshot) math.Int {
	return quoOrZero(s.FundingGoal.Mul(Unit), PublicShares(s))
}

// FloorPrice returns the minimum guaranteed redemption value per whole
// share: vaultBalance / circulatingSupply, scaled by Unit. Zero when
// circulating supply is zero.
//
// Floor division keeps the conservation property
// floorPrice × circulatingSupply ≤ vaultBalance for every input: a
// full pro-rata redemption can never pay out more than the vault holds.
func FloorPrice(s model.PledgeSnapshot) math.Int {
	return quoOrZero(s.VaultBalance.Mul(Unit), CirculatingSupply(s))
}

// TreasuryBuyCost returns the unbuffered cost of buying shares back out
// of the treasury at floor price. Callers submitting a purchase are
// expected to add their own slippage buffer on top; the engine exposes
// only the canonical floored value.
func TreasuryBuyCost(s model.PledgeSnapshot, shares math.Int) math.Int {
	if shares.IsNil() || !shares.IsPositive() {
		return math.ZeroInt()
	}
	return shares.Mul(FloorPrice(s)).Quo(Unit)
}

// FundingProgressBps returns totalRaised / fundingGoal in basis points,
// clamped to 10000. The ledger is expected to cap raises at the goal,
// but a stale or over-subscribed snapshot must not report more than
// 100%.
func FundingProgressBps(s model.PledgeSnapshot) math.Int {
	progress := quoOrZero(s.TotalRaised.Mul(BpsDenom), s.FundingGoal)
	if progress.GT(BpsDenom) {
		return BpsDenom
	}
	return progress
}

// CirculatingBps returns circulatingSupply / totalSupply in basis
// points.
func CirculatingBps(s model.PledgeSnapshot) math.Int {
	return CirculatingSupply(s).Mul(BpsDenom).Quo(TotalSupply)
}
