package memory

import (
	"context"
	"math/big"
	"sync"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

// LedgerStateStore is an in-memory implementation of storage.LedgerStateStore.
type LedgerStateStore struct {
	mu    sync.RWMutex
	state *domain.LedgerState
}

// NewLedgerStateStore creates a new in-memory ledger state store.
func NewLedgerStateStore() *LedgerStateStore {
	return &LedgerStateStore{}
}

// Init writes the initial state. Returns ErrDuplicateKey if already initialized.
func (s *LedgerStateStore) Init(_ context.Context, state *domain.LedgerState) error {
	if state == nil || state.BalanceWei == nil || state.BalanceWei.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil {
		return storage.ErrDuplicateKey
	}
	s.state = state.Copy()
	return nil
}

// Get retrieves the state. Returns ErrNotFound before Init.
func (s *LedgerStateStore) Get(_ context.Context) (*domain.LedgerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, storage.ErrNotFound
	}
	return s.state.Copy(), nil
}

// SetBalance overwrites the pooled wei balance.
func (s *LedgerStateStore) SetBalance(_ context.Context, balanceWei *big.Int) error {
	if balanceWei == nil || balanceWei.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return storage.ErrNotFound
	}
	s.state.BalanceWei = new(big.Int).Set(balanceWei)
	return nil
}

var _ storage.LedgerStateStore = (*LedgerStateStore)(nil)
