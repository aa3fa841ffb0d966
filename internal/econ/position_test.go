package econ

import (
	"testing"
	"time"

	"cosmossdk.io/math"
)

// --- Ownership ---

func TestOwnershipBps_ProRata(t *testing.T) {
	s := activeSnap() // 600k circulating

	if got := OwnershipBps(u(60_000), s); !got.Equal(math.NewInt(1000)) {
		t.Errorf("60k of 600k = %s bps, want 1000", got)
	}
	if got := OwnershipBps(u(600_000), s); !got.Equal(BpsDenom) {
		t.Errorf("full circulating supply = %s bps, want 10000", got)
	}
}

func TestOwnershipBps_Bounded(t *testing.T) {
	s := activeSnap()
	circ := CirculatingSupply(s)

	balances := []math.Int{
		math.ZeroInt(), math.OneInt(), u(1), u(123_456), circ,
	}
	for _, bal := range balances {
		got := OwnershipBps(bal, s)
		if got.IsNegative() || got.GT(BpsDenom) {
			t.Errorf("ownership %s out of [0, 10000] for balance %s", got, bal)
		}
	}
}

func TestOwnershipBps_ZeroCirculating(t *testing.T) {
	s := activeSnap()
	s.TreasuryShares = TotalSupply
	if got := OwnershipBps(u(1000), s); !got.IsZero() {
		t.Errorf("ownership with zero circulating = %s, want 0", got)
	}
}

// --- Redeemable value ---

func TestRedeemableValue_Conservation(t *testing.T) {
	s := activeSnap() // vault 12, 600k circulating

	// Partition circulating supply into ragged holder balances that sum
	// exactly to it; total payout must never exceed the vault.
	parts := []math.Int{
		u(1), u(37), u(123_456), fromStr(t, "999999999999999999"),
	}
	rest := CirculatingSupply(s)
	for _, p := range parts {
		rest = rest.Sub(p)
	}
	parts = append(parts, rest)

	sum := math.ZeroInt()
	for _, bal := range parts {
		sum = sum.Add(RedeemableValue(bal, s))
	}
	if sum.GT(s.VaultBalance) {
		t.Errorf("sum of redeemable values %s exceeds vault %s", sum, s.VaultBalance)
	}
}

func TestRedeemableValue_ZeroCirculating(t *testing.T) {
	s := activeSnap()
	s.TreasuryShares = TotalSupply
	if got := RedeemableValue(u(1000), s); !got.IsZero() {
		t.Errorf("redeemable with zero circulating = %s, want 0", got)
	}
}

// --- Redemption simulation ---

func TestSimulateRedemption(t *testing.T) {
	s := activeSnap() // floor price 0.00002

	preview, err := SimulateRedemption(s, u(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1000 × 0.00002 = 0.02 units.
	if want := fromStr(t, "20000000000000000"); !preview.Payout.Equal(want) {
		t.Errorf("payout = %s, want %s", preview.Payout, want)
	}
	if want := u(401_000); !preview.After.TreasuryShares.Equal(want) {
		t.Errorf("treasury after = %s, want %s", preview.After.TreasuryShares, want)
	}
	if want := u(599_000); !CirculatingSupply(preview.After).Equal(want) {
		t.Errorf("circulating after = %s, want %s", CirculatingSupply(preview.After), want)
	}
	if want := fromStr(t, "11980000000000000000"); !preview.After.VaultBalance.Equal(want) {
		t.Errorf("vault after = %s, want %s", preview.After.VaultBalance, want)
	}

	// The input snapshot is untouched.
	if !s.TreasuryShares.Equal(u(400_000)) || !s.VaultBalance.Equal(u(12)) {
		t.Error("simulation mutated the input snapshot")
	}
}

func TestSimulateRedemption_RejectsNonPositive(t *testing.T) {
	s := activeSnap()
	if _, err := SimulateRedemption(s, math.ZeroInt()); err != ErrNonPositiveAmount {
		t.Errorf("zero shares: got %v, want ErrNonPositiveAmount", err)
	}
	if _, err := SimulateRedemption(s, u(-10)); err != ErrNonPositiveAmount {
		t.Errorf("negative shares: got %v, want ErrNonPositiveAmount", err)
	}
}

func TestSimulateRedemption_CorruptSnapshot(t *testing.T) {
	s := activeSnap()
	s.FounderShareBps = 10_000
	if _, err := SimulateRedemption(s, u(10)); err != ErrFounderShareOutOfRange {
		t.Errorf("got %v, want ErrFounderShareOutOfRange", err)
	}
}

func TestValidateRedeemAmount(t *testing.T) {
	if err := ValidateRedeemAmount(u(10), u(100)); err != nil {
		t.Errorf("valid amount rejected: %v", err)
	}
	if err := ValidateRedeemAmount(u(0), u(100)); err != ErrNonPositiveAmount {
		t.Errorf("got %v, want ErrNonPositiveAmount", err)
	}
	if err := ValidateRedeemAmount(u(101), u(100)); err != ErrAmountExceedsBalance {
		t.Errorf("got %v, want ErrAmountExceedsBalance", err)
	}
	if err := ValidateRedeemAmount(u(100), u(100)); err != nil {
		t.Errorf("full balance should be redeemable: %v", err)
	}
}

// --- Contribution simulation ---

func TestSimulateContribution(t *testing.T) {
	s := fundingSnap()
	now := s.Deadline.Add(-24 * time.Hour)

	preview, err := SimulateContribution(s, u(1), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1 unit buys 1/10 of the 490k public shares.
	if want := u(49_000); !preview.SharesOut.Equal(want) {
		t.Errorf("shares out = %s, want %s", preview.SharesOut, want)
	}
	if want := u(1); !preview.After.TotalRaised.Equal(want) {
		t.Errorf("raised after = %s, want %s", preview.After.TotalRaised, want)
	}
	if want := u(1); !preview.After.VaultBalance.Equal(want) {
		t.Errorf("vault after = %s, want %s", preview.After.VaultBalance, want)
	}
}

func TestSimulateContribution_Closed(t *testing.T) {
	s := fundingSnap()

	if _, err := SimulateContribution(s, u(1), s.Deadline.Add(time.Hour)); err != ErrContributionClosed {
		t.Errorf("after deadline: got %v, want ErrContributionClosed", err)
	}

	s.TotalRaised = s.FundingGoal
	if _, err := SimulateContribution(s, u(1), s.Deadline.Add(-time.Hour)); err != ErrContributionClosed {
		t.Errorf("goal met: got %v, want ErrContributionClosed", err)
	}
}

func TestSimulateContribution_RejectsNonPositive(t *testing.T) {
	s := fundingSnap()
	now := s.Deadline.Add(-time.Hour)
	if _, err := SimulateContribution(s, math.ZeroInt(), now); err != ErrNonPositiveAmount {
		t.Errorf("got %v, want ErrNonPositiveAmount", err)
	}
}

// --- Position assembly ---

func TestBuildPosition(t *testing.T) {
	s := activeSnap()

	pos, err := BuildPosition(s, "0xabc", u(60_000), u(2), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pos.OwnershipBps.Equal(math.NewInt(1000)) {
		t.Errorf("ownership = %s bps, want 1000", pos.OwnershipBps)
	}
	// 60k/600k of a 12-unit vault = 1.2 units.
	if want := fromStr(t, "1200000000000000000"); !pos.RedeemableValue.Equal(want) {
		t.Errorf("redeemable = %s, want %s", pos.RedeemableValue, want)
	}
}

func TestBuildPosition_RejectsNegativeBalance(t *testing.T) {
	s := activeSnap()
	if _, err := BuildPosition(s, "0xabc", u(-1), u(0), nil); err != ErrNegativeAmount {
		t.Errorf("got %v, want ErrNegativeAmount", err)
	}
}
