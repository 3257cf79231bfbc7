package postgres

import (
	"context"
	"fmt"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

// TierStore implements storage.TierStore using PostgreSQL. Insertion order of
// lock periods is preserved through the tiers.seq column, which is assigned
// on first insert and untouched by rate overwrites.
type TierStore struct {
	pool *Pool
}

// NewTierStore creates a new TierStore.
func NewTierStore(pool *Pool) *TierStore {
	return &TierStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TierStore = (*TierStore)(nil)

// Upsert creates or overwrites the tier for t.LockDays. A zero lock period
// is valid; positions created against it unlock immediately.
func (s *TierStore) Upsert(ctx context.Context, t *domain.Tier) error {
	if t == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tiers (lock_days, rate_bps)
		VALUES ($1, $2)
		ON CONFLICT (lock_days) DO UPDATE SET rate_bps = EXCLUDED.rate_bps
	`

	if _, err := s.pool.Exec(ctx, query, int64(t.LockDays), int64(t.RateBps)); err != nil {
		return fmt.Errorf("upsert tier: %w", err)
	}
	return nil
}

// Rate returns the basis-point rate for lockDays. Returns ErrNotFound for an
// unsupported period.
func (s *TierStore) Rate(ctx context.Context, lockDays uint64) (uint64, error) {
	var rate int64
	err := s.pool.QueryRow(ctx,
		`SELECT rate_bps FROM tiers WHERE lock_days = $1`,
		int64(lockDays),
	).Scan(&rate)
	if err != nil {
		if isNotFoundError(err) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("get tier rate: %w", err)
	}
	return uint64(rate), nil
}

// LockPeriods returns the supported lock periods in insertion order.
func (s *TierStore) LockPeriods(ctx context.Context) ([]uint64, error) {
	rows, err := s.pool.Query(ctx, `SELECT lock_days FROM tiers ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("get lock periods: %w", err)
	}
	defer rows.Close()

	periods := make([]uint64, 0)
	for rows.Next() {
		var days int64
		if err := rows.Scan(&days); err != nil {
			return nil, fmt.Errorf("scan lock period: %w", err)
		}
		periods = append(periods, uint64(days))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lock period rows: %w", err)
	}

	return periods, nil
}

// LockPeriodAt returns the lock period at the given list index.
func (s *TierStore) LockPeriodAt(ctx context.Context, index int) (uint64, error) {
	if index < 0 {
		return 0, storage.ErrNotFound
	}

	var days int64
	err := s.pool.QueryRow(ctx,
		`SELECT lock_days FROM tiers ORDER BY seq ASC OFFSET $1 LIMIT 1`,
		index,
	).Scan(&days)
	if err != nil {
		if isNotFoundError(err) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("get lock period at index: %w", err)
	}
	return uint64(days), nil
}
