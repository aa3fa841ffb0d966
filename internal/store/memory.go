package store

import (
	"context"
	"sort"
	"sync"

	"github.com/swarooppatilx/pledge/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*model.PledgeSnapshot
	dividends map[string][]model.DividendDeposit // pledge address → deposits
	seen      map[string]bool                    // dividend ids
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*model.PledgeSnapshot),
		dividends: make(map[string][]model.DividendDeposit),
		seen:      make(map[string]bool),
	}
}

func (s *MemoryStore) UpsertSnapshot(_ context.Context, snap *model.PledgeSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to avoid external mutation.
	cp := *snap
	s.snapshots[snap.Address] = &cp
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, address string) (*model.PledgeSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[address]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *snap
	return &cp, nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context) ([]model.PledgeSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := make([]model.PledgeSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		snaps = append(snaps, *snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Address < snaps[j].Address })
	return snaps, nil
}

func (s *MemoryStore) ListAddresses(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addrs := make([]string, 0, len(s.snapshots))
	for addr := range s.snapshots {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs, nil
}

func (s *MemoryStore) InsertDividend(_ context.Context, d *model.DividendDeposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[d.ID] {
		return nil
	}
	s.seen[d.ID] = true
	s.dividends[d.PledgeAddress] = append(s.dividends[d.PledgeAddress], *d)
	return nil
}

func (s *MemoryStore) ListDividends(_ context.Context, pledge string) ([]model.DividendDeposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deposits := s.dividends[pledge]
	out := make([]model.DividendDeposit, len(deposits))
	copy(out, deposits)
	return out, nil
}
