package memory

import (
	"context"
	"sync"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

// TierStore is an in-memory implementation of storage.TierStore.
type TierStore struct {
	mu    sync.RWMutex
	rates map[uint64]uint64 // lock period days -> basis points
	order []uint64          // lock periods in insertion order, duplicate-free
}

// NewTierStore creates a new in-memory tier store.
func NewTierStore() *TierStore {
	return &TierStore{
		rates: make(map[uint64]uint64),
	}
}

// Upsert creates or overwrites the tier for t.LockDays. A new lock period is
// appended to the lock-period list; an existing one keeps its slot.
// A zero lock period is a valid tier: positions created against it unlock
// immediately.
func (s *TierStore) Upsert(_ context.Context, t *domain.Tier) error {
	if t == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rates[t.LockDays]; !exists {
		s.order = append(s.order, t.LockDays)
	}
	s.rates[t.LockDays] = t.RateBps
	return nil
}

// Rate returns the basis-point rate for lockDays. Returns ErrNotFound for an
// unsupported period.
func (s *TierStore) Rate(_ context.Context, lockDays uint64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rate, exists := s.rates[lockDays]
	if !exists {
		return 0, storage.ErrNotFound
	}
	return rate, nil
}

// LockPeriods returns the supported lock periods in insertion order.
func (s *TierStore) LockPeriods(_ context.Context) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]uint64, len(s.order))
	copy(out, s.order)
	return out, nil
}

// LockPeriodAt returns the lock period at the given list index.
func (s *TierStore) LockPeriodAt(_ context.Context, index int) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.order) {
		return 0, storage.ErrNotFound
	}
	return s.order[index], nil
}

var _ storage.TierStore = (*TierStore)(nil)
