package postgres

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

// LedgerStateStore implements storage.LedgerStateStore using PostgreSQL. The
// ledger_state table holds exactly one row, enforced by a constant primary key.
type LedgerStateStore struct {
	pool *Pool
}

// NewLedgerStateStore creates a new LedgerStateStore.
func NewLedgerStateStore(pool *Pool) *LedgerStateStore {
	return &LedgerStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LedgerStateStore = (*LedgerStateStore)(nil)

// Init writes the initial state. Returns ErrDuplicateKey if already initialized.
func (s *LedgerStateStore) Init(ctx context.Context, state *domain.LedgerState) error {
	if state == nil || state.BalanceWei == nil || state.BalanceWei.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ledger_state (singleton, owner_address, balance_wei)
		VALUES (TRUE, $1, $2::numeric)
	`

	_, err := s.pool.Exec(ctx, query, state.Owner.Hex(), weiArg(state.BalanceWei))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("init ledger state: %w", err)
	}
	return nil
}

// Get retrieves the state. Returns ErrNotFound before Init.
func (s *LedgerStateStore) Get(ctx context.Context) (*domain.LedgerState, error) {
	var ownerHex, balance string
	err := s.pool.QueryRow(ctx,
		`SELECT owner_address, balance_wei::text FROM ledger_state WHERE singleton`,
	).Scan(&ownerHex, &balance)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ledger state: %w", err)
	}

	balanceWei, err := parseWei(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance_wei: %w", err)
	}

	return &domain.LedgerState{
		Owner:      common.HexToAddress(ownerHex),
		BalanceWei: balanceWei,
	}, nil
}

// SetBalance overwrites the pooled wei balance.
func (s *LedgerStateStore) SetBalance(ctx context.Context, balanceWei *big.Int) error {
	if balanceWei == nil || balanceWei.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE ledger_state
		SET balance_wei = $1::numeric,
		    updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
		WHERE singleton
	`

	tag, err := s.pool.Exec(ctx, query, weiArg(balanceWei))
	if err != nil {
		return fmt.Errorf("set ledger balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
