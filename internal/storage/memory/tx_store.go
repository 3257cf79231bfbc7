package memory

import (
	"context"
	"math/big"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

// TxStore is an in-memory implementation of storage.TxStore. It mutates a
// PositionStore and a LedgerStateStore together while holding both locks, so
// a reader never observes one write without the other.
type TxStore struct {
	positions *PositionStore
	state     *LedgerStateStore
}

// NewTxStore creates a TxStore over the given memory stores.
func NewTxStore(positions *PositionStore, state *LedgerStateStore) *TxStore {
	return &TxStore{positions: positions, state: state}
}

// CommitStake inserts p and credits its principal to the pooled balance. All
// preconditions are checked before the first write, so a rejected commit
// changes nothing.
func (s *TxStore) CommitStake(_ context.Context, p *domain.Position) error {
	if p == nil || p.WeiStaked == nil || p.WeiStaked.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	s.positions.mu.Lock()
	defer s.positions.mu.Unlock()
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if s.state.state == nil {
		return storage.ErrNotFound
	}
	if _, exists := s.positions.data[p.PositionID]; exists {
		return storage.ErrDuplicateKey
	}

	s.positions.data[p.PositionID] = p.Copy()
	s.state.state.BalanceWei = new(big.Int).Add(s.state.state.BalanceWei, p.WeiStaked)
	return nil
}

// CommitClose flips the open flag and debits the payout in one step.
func (s *TxStore) CommitClose(_ context.Context, positionID uint64, payoutWei *big.Int) error {
	if payoutWei == nil || payoutWei.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	s.positions.mu.Lock()
	defer s.positions.mu.Unlock()
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, exists := s.positions.data[positionID]
	if !exists {
		return storage.ErrNotFound
	}
	if !p.Open {
		return storage.ErrAlreadyClosed
	}
	if s.state.state == nil {
		return storage.ErrNotFound
	}
	if s.state.state.BalanceWei.Cmp(payoutWei) < 0 {
		return storage.ErrInsufficientBalance
	}

	p.Open = false
	s.state.state.BalanceWei = new(big.Int).Sub(s.state.state.BalanceWei, payoutWei)
	return nil
}

var _ storage.TxStore = (*TxStore)(nil)
