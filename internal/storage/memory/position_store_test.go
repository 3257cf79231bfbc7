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

func testPosition(id uint64, wallet common.Address) *domain.Position {
	return &domain.Position{
		PositionID:      id,
		WalletAddress:   wallet,
		CreateDate:      1700000000,
		UnlockDate:      1700000000 + 90*domain.SecondsPerDay,
		PercentInterest: 1000,
		WeiStaked:       big.NewInt(1_000_000),
		WeiInterest:     big.NewInt(100_000),
		Open:            true,
	}
}

func TestPositionStore_InsertAndGet(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if err := store.Insert(ctx, testPosition(0, wallet)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	p, err := store.GetByID(ctx, 0)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if p.WalletAddress != wallet {
		t.Errorf("Wallet mismatch: got %s, want %s", p.WalletAddress.Hex(), wallet.Hex())
	}
	if p.WeiStaked.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Errorf("WeiStaked mismatch: got %s", p.WeiStaked)
	}
	if !p.Open {
		t.Error("Expected position to be open")
	}
}

func TestPositionStore_GetReturnsCopy(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if err := store.Insert(ctx, testPosition(0, wallet)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	p, _ := store.GetByID(ctx, 0)
	p.WeiStaked.SetInt64(0)
	p.Open = false

	again, _ := store.GetByID(ctx, 0)
	if again.WeiStaked.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Errorf("Store state mutated through returned copy: got %s", again.WeiStaked)
	}
	if !again.Open {
		t.Error("Open flag mutated through returned copy")
	}
}

func TestPositionStore_DuplicateKey(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if err := store.Insert(ctx, testPosition(0, wallet)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, testPosition(0, wallet))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPositionStore_GetByIDNotFound(t *testing.T) {
	store := NewPositionStore()

	_, err := store.GetByID(context.Background(), 42)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_IDsByWallet(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	wallet1 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	wallet2 := common.HexToAddress("0x2222222222222222222222222222222222222222")

	for id, wallet := range map[uint64]common.Address{
		0: wallet1, 1: wallet2, 2: wallet1, 3: wallet1,
	} {
		if err := store.Insert(ctx, testPosition(id, wallet)); err != nil {
			t.Fatalf("Insert %d failed: %v", id, err)
		}
	}

	ids, err := store.IDsByWallet(ctx, wallet1)
	if err != nil {
		t.Fatalf("IDsByWallet failed: %v", err)
	}

	want := []uint64{0, 2, 3}
	if len(ids) != len(want) {
		t.Fatalf("Expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestPositionStore_IDsByWalletEmpty(t *testing.T) {
	store := NewPositionStore()

	ids, err := store.IDsByWallet(context.Background(), common.HexToAddress("0x3333333333333333333333333333333333333333"))
	if err != nil {
		t.Fatalf("IDsByWallet failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected empty id list, got %v", ids)
	}
}

func TestPositionStore_Count(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")
	for id := uint64(0); id < 3; id++ {
		if err := store.Insert(ctx, testPosition(id, wallet)); err != nil {
			t.Fatalf("Insert %d failed: %v", id, err)
		}

		count, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count != id+1 {
			t.Errorf("Count = %d, want %d", count, id+1)
		}
	}
}

func TestPositionStore_SetUnlockDate(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if err := store.Insert(ctx, testPosition(0, wallet)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.SetUnlockDate(ctx, 0, 12345); err != nil {
		t.Fatalf("SetUnlockDate failed: %v", err)
	}

	p, _ := store.GetByID(ctx, 0)
	if p.UnlockDate != 12345 {
		t.Errorf("UnlockDate = %d, want 12345", p.UnlockDate)
	}

	err := store.SetUnlockDate(ctx, 99, 12345)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_CloseOnce(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if err := store.Insert(ctx, testPosition(0, wallet)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Close(ctx, 0); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	p, _ := store.GetByID(ctx, 0)
	if p.Open {
		t.Error("Expected position to be closed")
	}

	err := store.Close(ctx, 0)
	if !errors.Is(err, storage.ErrAlreadyClosed) {
		t.Errorf("Expected ErrAlreadyClosed, got %v", err)
	}

	err = store.Close(ctx, 99)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
