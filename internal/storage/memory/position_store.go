package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[uint64]*domain.Position
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[uint64]*domain.Position),
	}
}

// Insert adds a new position. Returns ErrDuplicateKey if the id exists.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.WeiStaked == nil || p.WeiStaked.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PositionID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[p.PositionID] = p.Copy()
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(_ context.Context, positionID uint64) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[positionID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return p.Copy(), nil
}

// IDsByWallet retrieves the ids of positions created by wallet, in creation
// order. Ids are assigned monotonically, so ascending id order is creation order.
func (s *PositionStore) IDsByWallet(_ context.Context, wallet common.Address) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0)
	for id, p := range s.data {
		if p.WalletAddress == wallet {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Count returns the number of positions ever created.
func (s *PositionStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.data)), nil
}

// SetUnlockDate overwrites the unlock date. Returns ErrNotFound if not exists.
func (s *PositionStore) SetUnlockDate(_ context.Context, positionID uint64, unlockDate int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[positionID]
	if !exists {
		return storage.ErrNotFound
	}
	p.UnlockDate = unlockDate
	return nil
}

// Close flips the open flag to false, exactly once.
func (s *PositionStore) Close(_ context.Context, positionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[positionID]
	if !exists {
		return storage.ErrNotFound
	}
	if !p.Open {
		return storage.ErrAlreadyClosed
	}
	p.Open = false
	return nil
}

var _ storage.PositionStore = (*PositionStore)(nil)
