package ticker

import (
	"testing"
	"time"

	"cosmossdk.io/math"

	"github.com/swarooppatilx/pledge/internal/model"
)

const addr = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func obs(yield int64, at time.Time) model.PledgeSnapshot {
	return model.PledgeSnapshot{
		Address:      addr,
		AccruedYield: math.NewInt(yield),
		FetchedAt:    at,
	}
}

func TestSimulatedYield_RateFromTwoObservations(t *testing.T) {
	tk := New(nil, time.Second)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tk.Observe(obs(1000, t0))
	if _, ok := tk.SimulatedYield(addr, t0); ok {
		t.Fatal("one observation must not establish a rate")
	}

	// 300 accrued over 30s: 10/s.
	tk.Observe(obs(1300, t0.Add(30*time.Second)))

	got, ok := tk.SimulatedYield(addr, t0.Add(35*time.Second))
	if !ok {
		t.Fatal("expected a rate after two observations")
	}
	if got != "1350" {
		t.Errorf("simulated yield = %s, want 1350", got)
	}
}

func TestSimulatedYield_TruncatesToInteger(t *testing.T) {
	tk := New(nil, time.Second)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 100 over 30s: 3.33../s. After 7s: 23.33.. above base.
	tk.Observe(obs(0, t0))
	tk.Observe(obs(100, t0.Add(30*time.Second)))

	got, ok := tk.SimulatedYield(addr, t0.Add(37*time.Second))
	if !ok {
		t.Fatal("expected a rate")
	}
	if got != "123" {
		t.Errorf("simulated yield = %s, want 123", got)
	}
}

func TestObserve_ResetsExtrapolationBase(t *testing.T) {
	tk := New(nil, time.Second)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tk.Observe(obs(1000, t0))
	tk.Observe(obs(1300, t0.Add(30*time.Second)))

	// A third real observation below the extrapolated path snaps the
	// base back to reality.
	tk.Observe(obs(1310, t0.Add(60*time.Second)))

	got, ok := tk.SimulatedYield(addr, t0.Add(60*time.Second))
	if !ok {
		t.Fatal("expected a rate")
	}
	if got != "1310" {
		t.Errorf("simulated yield = %s, want the real base 1310", got)
	}
}

func TestObserve_HarvestClearsRate(t *testing.T) {
	tk := New(nil, time.Second)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tk.Observe(obs(1000, t0))
	tk.Observe(obs(1300, t0.Add(30*time.Second)))

	// Yield dropped: a harvest moved it to the vault.
	tk.Observe(obs(0, t0.Add(60*time.Second)))
	if _, ok := tk.SimulatedYield(addr, t0.Add(61*time.Second)); ok {
		t.Fatal("rate must be cleared after a yield drop")
	}

	// Two fresh growing points re-establish it.
	tk.Observe(obs(50, t0.Add(90*time.Second)))
	if _, ok := tk.SimulatedYield(addr, t0.Add(91*time.Second)); !ok {
		t.Fatal("rate should be re-established after two fresh points")
	}
}

func TestForget(t *testing.T) {
	tk := New(nil, time.Second)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tk.Observe(obs(1000, t0))
	tk.Observe(obs(1300, t0.Add(30*time.Second)))
	tk.Forget(addr)

	if _, ok := tk.SimulatedYield(addr, t0.Add(31*time.Second)); ok {
		t.Fatal("forgotten pledge must have no rate")
	}
}

func TestSimulatedYield_RejectsPastInstants(t *testing.T) {
	tk := New(nil, time.Second)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tk.Observe(obs(1000, t0))
	tk.Observe(obs(1300, t0.Add(30*time.Second)))

	if _, ok := tk.SimulatedYield(addr, t0.Add(10*time.Second)); ok {
		t.Fatal("instants before the base observation must not extrapolate")
	}
}
