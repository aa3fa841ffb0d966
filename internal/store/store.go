// Package store persists the service's view of the ledger: the latest
// observed snapshot per pledge and the dividend deposits seen so far.
// PostgreSQL is the source of truth, Redis provides a read-through
// cache, and an in-memory implementation backs tests and development.
//
// The store never holds authority over balances — it is a cache of
// what the ledger reported, refreshed by the poller.
package store

import (
	"context"
	"errors"

	"github.com/swarooppatilx/pledge/internal/model"
)

// ErrNotFound is returned when no snapshot is stored for an address.
var ErrNotFound = errors.New("store: pledge not found")

// Store is the persistence interface.
type Store interface {
	// UpsertSnapshot replaces the stored snapshot for a pledge.
	UpsertSnapshot(ctx context.Context, s *model.PledgeSnapshot) error

	// GetSnapshot returns the latest stored snapshot for an address.
	GetSnapshot(ctx context.Context, address string) (*model.PledgeSnapshot, error)

	// ListSnapshots returns every stored snapshot, ordered by address.
	ListSnapshots(ctx context.Context) ([]model.PledgeSnapshot, error)

	// ListAddresses returns every tracked pledge address, ordered.
	ListAddresses(ctx context.Context) ([]string, error)

	// InsertDividend records a dividend deposit with its deposit-time
	// snapshot. Inserting an already-recorded id is a no-op.
	InsertDividend(ctx context.Context, d *model.DividendDeposit) error

	// ListDividends returns a pledge's deposits in deposit order.
	ListDividends(ctx context.Context, pledge string) ([]model.DividendDeposit, error)
}
