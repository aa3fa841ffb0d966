// Package ingest polls the ledger gateway and keeps the local store in
// sync with the authoritative pledge state.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/swarooppatilx/pledge/internal/api"
	"github.com/swarooppatilx/pledge/internal/econ"
	"github.com/swarooppatilx/pledge/internal/ledger"
	"github.com/swarooppatilx/pledge/internal/metrics"
	"github.com/swarooppatilx/pledge/internal/model"
	"github.com/swarooppatilx/pledge/internal/store"
	"github.com/swarooppatilx/pledge/internal/ticker"
)

// LedgerSource is the slice of the ledger gateway the poller consumes.
type LedgerSource interface {
	Snapshots(ctx context.Context, addresses []string) ([]model.PledgeSnapshot, error)
	Dividends(ctx context.Context, pledge string) ([]model.DividendDeposit, error)
}

var _ LedgerSource = (*ledger.Client)(nil)

// Poller refreshes all tracked pledges on an interval, persists the
// results, feeds the yield ticker and broadcasts refresh events.
type Poller struct {
	client    LedgerSource
	store     store.Store
	hub       *api.Hub
	ticker    *ticker.Ticker
	addresses []string
	interval  time.Duration
}

// New creates a poller for the given tracked addresses. hub and tk may
// be nil when real-time frames are not wanted.
func New(client LedgerSource, st store.Store, hub *api.Hub, tk *ticker.Ticker, addresses []string, interval time.Duration) *Poller {
	return &Poller{
		client:    client,
		store:     st,
		hub:       hub,
		ticker:    tk,
		addresses: addresses,
		interval:  interval,
	}
}

// Run refreshes immediately, then on every interval until ctx is
// cancelled. Must be called in a goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.Refresh(ctx)

	tick := time.NewTicker(p.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh performs one full sync cycle. Failures on individual pledges
// are logged and counted but never abort the rest of the batch.
func (p *Poller) Refresh(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	snaps, err := p.client.Snapshots(ctx, p.addresses)
	if err != nil {
		metrics.SnapshotRefreshesTotal.WithLabelValues("error").Inc()
		slog.Error("snapshot batch had failures", "err", err, "fetched", len(snaps))
	}

	for _, snap := range snaps {
		if err := p.ingest(ctx, snap); err != nil {
			metrics.SnapshotRefreshesTotal.WithLabelValues("error").Inc()
			slog.Error("ingest pledge", "pledge", snap.Address, "err", err)
			continue
		}
		metrics.SnapshotRefreshesTotal.WithLabelValues("ok").Inc()
	}

	if addrs, err := p.store.ListAddresses(ctx); err == nil {
		metrics.TrackedPledges.Set(float64(len(addrs)))
	}

	slog.Info("refresh complete",
		"pledges", len(snaps),
		"duration", time.Since(start).Round(time.Millisecond))
}

func (p *Poller) ingest(ctx context.Context, snap model.PledgeSnapshot) error {
	// Corrupt ledger data is stored raw so operators can inspect it,
	// but it must be visible in the logs rather than silently priced.
	if err := econ.Validate(snap); err != nil {
		slog.Warn("snapshot failed validation", "pledge", snap.Address, "err", err)
	}

	if err := p.store.UpsertSnapshot(ctx, &snap); err != nil {
		return err
	}

	deposits, err := p.client.Dividends(ctx, snap.Address)
	if err != nil {
		slog.Warn("fetch dividends", "pledge", snap.Address, "err", err)
	}
	for _, dep := range deposits {
		if err := p.store.InsertDividend(ctx, &dep); err != nil {
			slog.Warn("record dividend", "pledge", snap.Address, "id", dep.ID, "err", err)
		}
	}

	if p.ticker != nil {
		p.ticker.Observe(snap)
	}
	if p.hub != nil {
		p.hub.Broadcast(api.WSMessage{
			Type:         "snapshot_refreshed",
			Pledge:       snap.Address,
			Phase:        string(snap.Phase),
			FloorPrice:   econ.FloorPrice(snap).String(),
			VaultBalance: snap.VaultBalance.String(),
			AccruedYield: snap.AccruedYield.String(),
		})
	}
	return nil
}
