package econ

import (
	"time"

	"cosmossdk.io/math"

	"github.com/swarooppatilx/pledge/internal/model"
)

// OwnershipBps returns a holder's share of circulating supply in basis
// points: shareBalance × 10000 / circulatingSupply. Zero when the
// denominator is zero. Bounded to [0, 10000] for any balance not
// exceeding circulating supply.
func OwnershipBps(shareBalance math.Int, s model.PledgeSnapshot) math.Int {
	if shareBalance.IsNil() || shareBalance.IsNegative() {
		return math.ZeroInt()
	}
	return quoOrZero(shareBalance.Mul(BpsDenom), CirculatingSupply(s))
}

// RedeemableValue returns the pro-rata vault claim of a holding:
// shareBalance × vaultBalance / circulatingSupply. Floor division
// guarantees that summed over any partition of circulating supply the
// payouts never exceed the vault balance.
func RedeemableValue(shareBalance math.Int, s model.PledgeSnapshot) math.Int {
	if shareBalance.IsNil() || shareBalance.IsNegative() {
		return math.ZeroInt()
	}
	return quoOrZero(shareBalance.Mul(s.VaultBalance), CirculatingSupply(s))
}

// RedemptionPreview is the modeled effect of redeeming shares: the
// currency payout and the snapshot that would result. The ledger, not
// the engine, executes the redemption.
type RedemptionPreview struct {
	Shares math.Int             `json:"shares"`
	Payout math.Int             `json:"payout"`
	After  model.PledgeSnapshot `json:"after"`
}

// SimulateRedemption models redeeming n shares at floor price: the
// holder is paid n × floorPrice and the shares move into the treasury,
// shrinking circulating supply and the vault by the paid amount.
//
// n ≤ 0 is rejected. n exceeding the holder's balance is deliberately
// not checked here — the engine does not know balances; callers gate
// that with ValidateRedeemAmount and the ledger enforces it.
func SimulateRedemption(s model.PledgeSnapshot, n math.Int) (RedemptionPreview, error) {
	if err := Validate(s); err != nil {
		return RedemptionPreview{}, err
	}
	if n.IsNil() || !n.IsPositive() {
		return RedemptionPreview{}, ErrNonPositiveAmount
	}

	payout := n.Mul(FloorPrice(s)).Quo(Unit)

	after := s
	after.TreasuryShares = s.TreasuryShares.Add(n)
	after.VaultBalance = s.VaultBalance.Sub(payout)

	return RedemptionPreview{Shares: n, Payout: payout, After: after}, nil
}

// ValidateRedeemAmount is the preview-input check for a redemption
// form: the amount must be positive and within the holder's stated
// balance.
func ValidateRedeemAmount(n, shareBalance math.Int) error {
	if n.IsNil() || !n.IsPositive() {
		return ErrNonPositiveAmount
	}
	if shareBalance.IsNil() || n.GT(shareBalance) {
		return ErrAmountExceedsBalance
	}
	return nil
}

// ContributionPreview is the modeled effect of a funding-phase
// contribution: shares received at ICO price and the resulting
// snapshot.
type ContributionPreview struct {
	Amount    math.Int             `json:"amount"`
	SharesOut math.Int             `json:"shares_out"`
	After     model.PledgeSnapshot `json:"after"`
}

// SimulateContribution models contributing amount during funding.
// Shares out are computed as amount × publicShares / fundingGoal — a
// single floor division rather than going through the rounded ICO
// price twice. Rejected when the amount is non-positive or the pledge
// is no longer accepting contributions (deadline lapsed or goal met,
// even if the stored phase has not been finalized).
func SimulateContribution(s model.PledgeSnapshot, amount math.Int, now time.Time) (ContributionPreview, error) {
	if err := Validate(s); err != nil {
		return ContributionPreview{}, err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return ContributionPreview{}, ErrNonPositiveAmount
	}
	if !ContributionOpen(s, now) {
		return ContributionPreview{}, ErrContributionClosed
	}

	sharesOut := quoOrZero(amount.Mul(PublicShares(s)), s.FundingGoal)

	after := s
	after.TotalRaised = s.TotalRaised.Add(amount)
	after.VaultBalance = s.VaultBalance.Add(amount)

	return ContributionPreview{Amount: amount, SharesOut: sharesOut, After: after}, nil
}

// BuildPosition assembles a HolderPosition from a snapshot, the raw
// balance/contribution supplied by the ledger, and any recorded
// dividend deposits. Dividend shares are computed against each
// deposit's own snapshot, not the current one.
func BuildPosition(
	s model.PledgeSnapshot,
	holder string,
	shareBalance, contribution math.Int,
	deposits []model.DividendDeposit,
) (model.HolderPosition, error) {
	if err := Validate(s); err != nil {
		return model.HolderPosition{}, err
	}
	if shareBalance.IsNil() || shareBalance.IsNegative() ||
		contribution.IsNil() || contribution.IsNegative() {
		return model.HolderPosition{}, ErrNegativeAmount
	}

	return model.HolderPosition{
		PledgeAddress:   s.Address,
		Holder:          holder,
		ShareBalance:    shareBalance,
		Contribution:    contribution,
		OwnershipBps:    OwnershipBps(shareBalance, s),
		RedeemableValue: RedeemableValue(shareBalance, s),
		PendingRewards:  PendingRewards(s, shareBalance, deposits),
	}, nil
}
