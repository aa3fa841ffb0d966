// Package ticker emits cosmetic per-second yield extrapolations between
// real ledger refreshes. Every frame it broadcasts is marked simulated;
// nothing here feeds back into stored state or any economic calculation.
package ticker

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/swarooppatilx/pledge/internal/api"
	"github.com/swarooppatilx/pledge/internal/model"
)

type observation struct {
	yield decimal.Decimal
	at    time.Time
}

// Ticker derives a per-second accrual rate from the last two real
// yield observations of each pledge and broadcasts extrapolated values
// on an interval. A fresh real observation resets the extrapolation
// base, so simulated drift never survives a refresh.
type Ticker struct {
	hub      *api.Hub
	interval time.Duration

	mu    sync.Mutex
	last  map[string]observation
	rates map[string]decimal.Decimal
}

// New creates a ticker broadcasting on hub every interval.
func New(hub *api.Hub, interval time.Duration) *Ticker {
	return &Ticker{
		hub:      hub,
		interval: interval,
		last:     make(map[string]observation),
		rates:    make(map[string]decimal.Decimal),
	}
}

// Observe records a real snapshot. Two observations with growing yield
// establish a rate; a yield drop (a harvest happened) clears the rate
// until two fresh points exist again.
func (t *Ticker) Observe(snap model.PledgeSnapshot) {
	if snap.AccruedYield.IsNil() {
		return
	}
	y := decimal.NewFromBigInt(snap.AccruedYield.BigInt(), 0)
	at := snap.FetchedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.last[snap.Address]
	switch {
	case ok && at.After(prev.at) && y.GreaterThan(prev.yield):
		dt := decimal.NewFromFloat(at.Sub(prev.at).Seconds())
		t.rates[snap.Address] = y.Sub(prev.yield).Div(dt)
	case ok && y.LessThan(prev.yield):
		delete(t.rates, snap.Address)
	}
	t.last[snap.Address] = observation{yield: y, at: at}
}

// Forget drops all state for a pledge, e.g. when it leaves the tracked
// set.
func (t *Ticker) Forget(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, address)
	delete(t.rates, address)
}

// SimulatedYield returns the extrapolated accrued yield for a pledge at
// the given instant, as a decimal string truncated to an integer. The
// second return is false when no rate has been established yet.
func (t *Ticker) SimulatedYield(address string, now time.Time) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rate, ok := t.rates[address]
	if !ok {
		return "", false
	}
	base := t.last[address]
	elapsed := now.Sub(base.at)
	if elapsed < 0 {
		return "", false
	}
	secs := decimal.NewFromFloat(elapsed.Seconds())
	return base.yield.Add(rate.Mul(secs)).Floor().String(), true
}

// Run broadcasts yield_tick frames until ctx is cancelled. Must be
// called in a goroutine.
func (t *Ticker) Run(ctx context.Context) {
	tick := time.NewTicker(t.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			t.emit(now.UTC())
		}
	}
}

func (t *Ticker) emit(now time.Time) {
	if t.hub == nil {
		return
	}
	t.mu.Lock()
	addresses := make([]string, 0, len(t.rates))
	for addr := range t.rates {
		addresses = append(addresses, addr)
	}
	t.mu.Unlock()

	for _, addr := range addresses {
		y, ok := t.SimulatedYield(addr, now)
		if !ok {
			continue
		}
		t.hub.Broadcast(api.WSMessage{
			Type:         "yield_tick",
			Pledge:       addr,
			AccruedYield: y,
			Simulated:    true,
		})
	}
}
