package storage

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"staking-ledger/internal/domain"
)

// PositionStore provides access to positions storage. Positions are never
// deleted; a closed position stays queryable with open=false.
type PositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
	Insert(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, positionID uint64) (*domain.Position, error)

	// IDsByWallet retrieves the ids of positions created by wallet, in
	// creation order. Returns an empty slice when the wallet has none.
	IDsByWallet(ctx context.Context, wallet common.Address) ([]uint64, error)

	// Count returns the number of positions ever created. Ids are dense from
	// 0, so this is also the next id to assign.
	Count(ctx context.Context) (uint64, error)

	// SetUnlockDate overwrites the unlock date. Returns ErrNotFound if not exists.
	SetUnlockDate(ctx context.Context, positionID uint64, unlockDate int64) error

	// Close flips the open flag to false. Returns ErrNotFound if the position
	// does not exist and ErrAlreadyClosed if the flag is already false, so a
	// position can never be closed twice.
	Close(ctx context.Context, positionID uint64) error
}

// TierStore provides access to the tier table and the ordered lock-period list.
type TierStore interface {
	// Upsert creates or overwrites the tier for t.LockDays. A new lock period
	// is appended to the lock-period list; an existing one keeps its slot.
	Upsert(ctx context.Context, t *domain.Tier) error

	// Rate returns the basis-point rate for lockDays. Returns ErrNotFound for
	// an unsupported period.
	Rate(ctx context.Context, lockDays uint64) (uint64, error)

	// LockPeriods returns the supported lock periods in insertion order,
	// duplicate-free.
	LockPeriods(ctx context.Context) ([]uint64, error)

	// LockPeriodAt returns the lock period at the given list index. Returns
	// ErrNotFound when the index is out of range.
	LockPeriodAt(ctx context.Context, index int) (uint64, error)
}

// TxStore executes mutations that span the positions table and the ledger
// state row as one atomic commit: either both writes land or neither does.
// There is never an intermediate state with a closed position and an
// undebited balance, or an inserted position and an uncredited balance.
type TxStore interface {
	// CommitStake inserts p and credits p.WeiStaked to the pooled balance.
	// Returns ErrDuplicateKey if the position id exists and ErrNotFound
	// before ledger initialization.
	CommitStake(ctx context.Context, p *domain.Position) error

	// CommitClose flips the open flag to false and debits payoutWei from the
	// pooled balance. Returns ErrNotFound if the position does not exist,
	// ErrAlreadyClosed if it is already closed, and ErrInsufficientBalance
	// when the pooled balance cannot cover the payout.
	CommitClose(ctx context.Context, positionID uint64, payoutWei *big.Int) error
}

// LedgerStateStore persists the singleton ledger row.
type LedgerStateStore interface {
	// Init writes the initial state. Returns ErrDuplicateKey if the ledger
	// was already initialized; the owner is immutable after this call.
	Init(ctx context.Context, s *domain.LedgerState) error

	// Get retrieves the state. Returns ErrNotFound before Init.
	Get(ctx context.Context) (*domain.LedgerState, error)

	// SetBalance overwrites the pooled wei balance. Returns ErrNotFound
	// before Init and ErrInvalidInput for a negative balance.
	SetBalance(ctx context.Context, balanceWei *big.Int) error
}
