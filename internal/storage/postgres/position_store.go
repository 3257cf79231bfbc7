package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.WeiStaked == nil || p.WeiStaked.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (
			position_id, wallet_address, create_date, unlock_date,
			percent_interest, wei_staked, wei_interest, open
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8)
	`

	_, err := s.pool.Exec(ctx, query,
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
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, positionID uint64) (*domain.Position, error) {
	query := `
		SELECT position_id, wallet_address, create_date, unlock_date,
		       percent_interest, wei_staked::text, wei_interest::text, open
		FROM positions
		WHERE position_id = $1
	`

	row := s.pool.QueryRow(ctx, query, int64(positionID))
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// IDsByWallet retrieves the ids of positions created by wallet, in creation
// order (ascending id order, since ids are assigned monotonically).
func (s *PositionStore) IDsByWallet(ctx context.Context, wallet common.Address) ([]uint64, error) {
	query := `
		SELECT position_id
		FROM positions
		WHERE wallet_address = $1
		ORDER BY position_id ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet.Hex())
	if err != nil {
		return nil, fmt.Errorf("get position ids by wallet: %w", err)
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan position id: %w", err)
		}
		ids = append(ids, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position id rows: %w", err)
	}

	return ids, nil
}

// Count returns the number of positions ever created.
func (s *PositionStore) Count(ctx context.Context) (uint64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM positions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count positions: %w", err)
	}
	return uint64(count), nil
}

// SetUnlockDate overwrites the unlock date. Returns ErrNotFound if not exists.
func (s *PositionStore) SetUnlockDate(ctx context.Context, positionID uint64, unlockDate int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE positions SET unlock_date = $2 WHERE position_id = $1`,
		int64(positionID), unlockDate,
	)
	if err != nil {
		return fmt.Errorf("set unlock date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Close flips the open flag to false. The conditional update guarantees a
// position closes at most once even across concurrent ledger instances.
func (s *PositionStore) Close(ctx context.Context, positionID uint64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE positions SET open = FALSE WHERE position_id = $1 AND open`,
		int64(positionID),
	)
	if err != nil {
		return fmt.Errorf("close position: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Distinguish missing from already-closed.
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM positions WHERE position_id = $1)`,
		int64(positionID),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("close position: check existence: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrAlreadyClosed
}

// scanPosition scans a single row into a Position.
func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position
	var positionID, percentInterest int64
	var walletHex, weiStaked, weiInterest string

	err := row.Scan(
		&positionID,
		&walletHex,
		&p.CreateDate,
		&p.UnlockDate,
		&percentInterest,
		&weiStaked,
		&weiInterest,
		&p.Open,
	)
	if err != nil {
		return nil, err
	}

	p.PositionID = uint64(positionID)
	p.PercentInterest = uint64(percentInterest)
	p.WalletAddress = common.HexToAddress(walletHex)

	p.WeiStaked, err = parseWei(weiStaked)
	if err != nil {
		return nil, fmt.Errorf("parse wei_staked: %w", err)
	}
	p.WeiInterest, err = parseWei(weiInterest)
	if err != nil {
		return nil, fmt.Errorf("parse wei_interest: %w", err)
	}

	return &p, nil
}
