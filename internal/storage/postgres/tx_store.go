package postgres

import (
	"context"
	"fmt"
	"math/big"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

// TxStore implements storage.TxStore using PostgreSQL. Each commit runs the
// position write and the balance adjustment inside one transaction, so a
// failure at any point rolls both back.
type TxStore struct {
	pool *Pool
}

// NewTxStore creates a new TxStore.
func NewTxStore(pool *Pool) *TxStore {
	return &TxStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TxStore = (*TxStore)(nil)

// CommitStake inserts p and credits its principal to the pooled balance.
func (s *TxStore) CommitStake(ctx context.Context, p *domain.Position) error {
	if p == nil || p.WeiStaked == nil || p.WeiStaked.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("commit stake: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO positions (
			position_id, wallet_address, create_date, unlock_date,
			percent_interest, wei_staked, wei_interest, open
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8)
	`
	_, err = tx.Exec(ctx, insert,
		int64(p.PositionID),
		p.WalletAddress.Hex(),
		p.CreateDate,
		p.UnlockDate,
		int64(p.PercentInterest),
		weiArg(p.WeiStaked),
		weiArg(p.WeiInterest),
		p.Open,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("commit stake: insert position: %w", err)
	}

	credit := `
		UPDATE ledger_state
		SET balance_wei = balance_wei + $1::numeric,
		    updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
		WHERE singleton
	`
	tag, err := tx.Exec(ctx, credit, weiArg(p.WeiStaked))
	if err != nil {
		return fmt.Errorf("commit stake: credit balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit stake: %w", err)
	}
	return nil
}

// CommitClose flips the open flag and debits the payout in the same
// transaction. The debit is conditional on the balance covering the payout,
// which also holds across concurrent ledger instances.
func (s *TxStore) CommitClose(ctx context.Context, positionID uint64, payoutWei *big.Int) error {
	if payoutWei == nil || payoutWei.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("commit close: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE positions SET open = FALSE WHERE position_id = $1 AND open`,
		int64(positionID),
	)
	if err != nil {
		return fmt.Errorf("commit close: close position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM positions WHERE position_id = $1)`,
			int64(positionID),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("commit close: check existence: %w", err)
		}
		if !exists {
			return storage.ErrNotFound
		}
		return storage.ErrAlreadyClosed
	}

	debit := `
		UPDATE ledger_state
		SET balance_wei = balance_wei - $1::numeric,
		    updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
		WHERE singleton AND balance_wei >= $1::numeric
	`
	tag, err = tx.Exec(ctx, debit, weiArg(payoutWei))
	if err != nil {
		return fmt.Errorf("commit close: debit balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrInsufficientBalance
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit close: %w", err)
	}
	return nil
}
