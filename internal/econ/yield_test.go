package econ

import (
	"testing"
	"time"

	"cosmossdk.io/math"

	"github.com/swarooppatilx/pledge/internal/model"
)

// --- Harvest split ---

func TestSplitHarvest_EightyTwenty(t *testing.T) {
	// 0.001 unit splits into 0.0008 / 0.0002.
	split, err := SplitHarvest(math.NewIntWithDecimal(1, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := math.NewIntWithDecimal(8, 14); !split.HolderShare.Equal(want) {
		t.Errorf("holder share = %s, want %s", split.HolderShare, want)
	}
	if want := math.NewIntWithDecimal(2, 14); !split.ProtocolShare.Equal(want) {
		t.Errorf("protocol share = %s, want %s", split.ProtocolShare, want)
	}
}

func TestSplitHarvest_Exact(t *testing.T) {
	// The two sides must sum to the input exactly, including amounts
	// that do not divide evenly.
	inputs := []math.Int{
		math.ZeroInt(),
		math.OneInt(),
		math.NewInt(3),
		math.NewInt(999),
		fromStr(t, "123456789123456789123456789"),
	}
	for _, in := range inputs {
		split, err := SplitHarvest(in)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", in, err)
		}
		if sum := split.HolderShare.Add(split.ProtocolShare); !sum.Equal(in) {
			t.Errorf("split leaks: %s + %s = %s, want %s",
				split.HolderShare, split.ProtocolShare, sum, in)
		}
	}
}

func TestSplitHarvest_RejectsNegative(t *testing.T) {
	if _, err := SplitHarvest(math.NewInt(-1)); err != ErrNegativeAmount {
		t.Errorf("got %v, want ErrNegativeAmount", err)
	}
	if _, err := SplitHarvest(math.Int{}); err != ErrNegativeAmount {
		t.Errorf("nil input: got %v, want ErrNegativeAmount", err)
	}
}

// --- Harvest availability ---

func TestHarvestAvailable_ThresholdGatesActionOnly(t *testing.T) {
	s := activeSnap()

	s.AccruedYield = MinHarvestAmount
	if !HarvestAvailable(s) {
		t.Error("yield at threshold should be harvestable")
	}

	s.AccruedYield = MinHarvestAmount.SubRaw(1)
	if HarvestAvailable(s) {
		t.Error("yield below threshold should suppress the action")
	}

	// The amount itself is still computed and reported below threshold.
	split, err := SplitHarvest(s.AccruedYield)
	if err != nil {
		t.Fatalf("sub-threshold yield must still be computable: %v", err)
	}
	if split.HolderShare.IsZero() {
		t.Error("sub-threshold yield should still split to a non-zero holder share")
	}
}

// --- Dividends ---

func TestDividendShare_UsesDepositSnapshot(t *testing.T) {
	depositTime := activeSnap() // 600k circulating at deposit
	deposit := model.DividendDeposit{
		ID:            "dep-1",
		PledgeAddress: depositTime.Address,
		Amount:        u(6),
		Snapshot:      depositTime,
		DepositedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	// 60k of the 600k circulating at deposit time → 10% of 6 units.
	want := fromStr(t, "600000000000000000")
	if got := DividendShare(deposit, u(60_000)); !got.Equal(want) {
		t.Errorf("dividend share = %s, want %s", got, want)
	}

	// The deposit's own snapshot is the denominator by construction;
	// there is no way to pass a later snapshot in, which is the point.
	if got := DividendShare(deposit, u(60_000)); !got.Equal(want) {
		t.Errorf("dividend share not stable: %s", got)
	}
}

func TestDividendShare_ZeroCirculatingAtDeposit(t *testing.T) {
	s := activeSnap()
	s.TreasuryShares = TotalSupply
	deposit := model.DividendDeposit{Amount: u(5), Snapshot: s}

	if got := DividendShare(deposit, u(100)); !got.IsZero() {
		t.Errorf("share with zero circulating = %s, want 0", got)
	}
}

// --- Pending rewards ---

func TestPendingRewards(t *testing.T) {
	s := activeSnap()
	s.AccruedYield = u(1) // holder pool gets 0.8

	deposit := model.DividendDeposit{Amount: u(6), Snapshot: activeSnap()}

	// 60k/600k of the 0.8-unit holder pool = 0.08; plus 10% of the
	// 6-unit dividend = 0.6. Total 0.68.
	want := fromStr(t, "680000000000000000")
	got := PendingRewards(s, u(60_000), []model.DividendDeposit{deposit})
	if !got.Equal(want) {
		t.Errorf("pending rewards = %s, want %s", got, want)
	}
}

func TestPendingRewards_NoDeposits(t *testing.T) {
	s := activeSnap()
	if got := PendingRewards(s, u(60_000), nil); !got.IsZero() {
		t.Errorf("no yield, no deposits: pending = %s, want 0", got)
	}
}
