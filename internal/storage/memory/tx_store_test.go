package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

func newTxFixture(t *testing.T, seedWei int64) (*TxStore, *PositionStore, *LedgerStateStore) {
	t.Helper()

	positions := NewPositionStore()
	state := NewLedgerStateStore()

	err := state.Init(context.Background(), &domain.LedgerState{
		Owner:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		BalanceWei: big.NewInt(seedWei),
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	return NewTxStore(positions, state), positions, state
}

func txPosition(id uint64, staked, interest int64) *domain.Position {
	return &domain.Position{
		PositionID:      id,
		WalletAddress:   common.HexToAddress("0x2222222222222222222222222222222222222222"),
		CreateDate:      1000,
		UnlockDate:      2000,
		PercentInterest: 700,
		WeiStaked:       big.NewInt(staked),
		WeiInterest:     big.NewInt(interest),
		Open:            true,
	}
}

func TestTxStore_CommitStake(t *testing.T) {
	tx, positions, state := newTxFixture(t, 50)
	ctx := context.Background()

	if err := tx.CommitStake(ctx, txPosition(0, 100, 7)); err != nil {
		t.Fatalf("CommitStake failed: %v", err)
	}

	p, err := positions.GetByID(ctx, 0)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !p.Open {
		t.Error("Expected position to be open")
	}

	s, err := state.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if s.BalanceWei.Cmp(big.NewInt(150)) != 0 {
		t.Errorf("BalanceWei = %s, want 150", s.BalanceWei)
	}
}

func TestTxStore_CommitStakeDuplicateLeavesBalance(t *testing.T) {
	tx, _, state := newTxFixture(t, 50)
	ctx := context.Background()

	if err := tx.CommitStake(ctx, txPosition(0, 100, 7)); err != nil {
		t.Fatalf("CommitStake failed: %v", err)
	}

	err := tx.CommitStake(ctx, txPosition(0, 100, 7))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	s, _ := state.Get(ctx)
	if s.BalanceWei.Cmp(big.NewInt(150)) != 0 {
		t.Errorf("BalanceWei = %s, want 150 after rejected duplicate", s.BalanceWei)
	}
}

func TestTxStore_CommitClose(t *testing.T) {
	tx, positions, state := newTxFixture(t, 50)
	ctx := context.Background()

	if err := tx.CommitStake(ctx, txPosition(0, 100, 7)); err != nil {
		t.Fatalf("CommitStake failed: %v", err)
	}
	if err := tx.CommitClose(ctx, 0, big.NewInt(107)); err != nil {
		t.Fatalf("CommitClose failed: %v", err)
	}

	p, _ := positions.GetByID(ctx, 0)
	if p.Open {
		t.Error("Expected position to be closed")
	}

	s, _ := state.Get(ctx)
	if s.BalanceWei.Cmp(big.NewInt(43)) != 0 {
		t.Errorf("BalanceWei = %s, want 43", s.BalanceWei)
	}
}

func TestTxStore_CommitCloseInsufficientBalanceWritesNothing(t *testing.T) {
	tx, positions, state := newTxFixture(t, 0)
	ctx := context.Background()

	if err := tx.CommitStake(ctx, txPosition(0, 100, 7)); err != nil {
		t.Fatalf("CommitStake failed: %v", err)
	}

	err := tx.CommitClose(ctx, 0, big.NewInt(107))
	if !errors.Is(err, storage.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	// The position must still be open and the balance untouched.
	p, _ := positions.GetByID(ctx, 0)
	if !p.Open {
		t.Error("Expected position to stay open after rejected close")
	}
	s, _ := state.Get(ctx)
	if s.BalanceWei.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("BalanceWei = %s, want 100", s.BalanceWei)
	}
}

func TestTxStore_CommitCloseTerminalStates(t *testing.T) {
	tx, _, _ := newTxFixture(t, 50)
	ctx := context.Background()

	err := tx.CommitClose(ctx, 9, big.NewInt(1))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := tx.CommitStake(ctx, txPosition(0, 100, 7)); err != nil {
		t.Fatalf("CommitStake failed: %v", err)
	}
	if err := tx.CommitClose(ctx, 0, big.NewInt(100)); err != nil {
		t.Fatalf("CommitClose failed: %v", err)
	}

	err = tx.CommitClose(ctx, 0, big.NewInt(100))
	if !errors.Is(err, storage.ErrAlreadyClosed) {
		t.Errorf("Expected ErrAlreadyClosed, got %v", err)
	}
}

func TestTxStore_CommitStakeBeforeInit(t *testing.T) {
	tx := NewTxStore(NewPositionStore(), NewLedgerStateStore())

	err := tx.CommitStake(context.Background(), txPosition(0, 100, 7))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
