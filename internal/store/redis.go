package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/swarooppatilx/pledge/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis
// read-through cache. Writes go to the primary store and invalidate
// the cache; reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, refresh cache) ---

func (s *CachedStore) UpsertSnapshot(ctx context.Context, snap *model.PledgeSnapshot) error {
	if err := s.primary.UpsertSnapshot(ctx, snap); err != nil {
		return err
	}
	s.cacheSnapshot(ctx, snap)
	return nil
}

func (s *CachedStore) InsertDividend(ctx context.Context, d *model.DividendDeposit) error {
	if err := s.primary.InsertDividend(ctx, d); err != nil {
		return err
	}
	// Invalidate; the next read re-populates from the primary.
	s.rdb.Del(ctx, dividendsKey(d.PledgeAddress))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetSnapshot(ctx context.Context, address string) (*model.PledgeSnapshot, error) {
	data, err := s.rdb.Get(ctx, snapshotKey(address)).Bytes()
	if err == nil {
		var snap model.PledgeSnapshot
		if json.Unmarshal(data, &snap) == nil {
			return &snap, nil
		}
	}

	snap, err := s.primary.GetSnapshot(ctx, address)
	if err != nil {
		return nil, err
	}
	s.cacheSnapshot(ctx, snap)
	return snap, nil
}

func (s *CachedStore) ListDividends(ctx context.Context, pledge string) ([]model.DividendDeposit, error) {
	data, err := s.rdb.Get(ctx, dividendsKey(pledge)).Bytes()
	if err == nil {
		var deposits []model.DividendDeposit
		if json.Unmarshal(data, &deposits) == nil {
			return deposits, nil
		}
	}

	deposits, err := s.primary.ListDividends(ctx, pledge)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(deposits); err == nil {
		s.rdb.Set(ctx, dividendsKey(pledge), data, s.ttl)
	}
	return deposits, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListSnapshots(ctx context.Context) ([]model.PledgeSnapshot, error) {
	return s.primary.ListSnapshots(ctx)
}

func (s *CachedStore) ListAddresses(ctx context.Context) ([]string, error) {
	return s.primary.ListAddresses(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) cacheSnapshot(ctx context.Context, snap *model.PledgeSnapshot) {
	if data, err := json.Marshal(snap); err == nil {
		s.rdb.Set(ctx, snapshotKey(snap.Address), data, s.ttl)
	}
}

func snapshotKey(addr string) string  { return fmt.Sprintf("pledge:%s", addr) }
func dividendsKey(addr string) string { return fmt.Sprintf("dividends:%s", addr) }
