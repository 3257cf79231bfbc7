// Package ledger implements the time-locked staking state machine: position
// creation, tier configuration, owner-gated mutation, and position closure
// with time-gated interest payout.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"staking-ledger/internal/domain"
	"staking-ledger/internal/storage"
)

// EventSink receives ledger events. Publishing is best-effort: a sink failure
// never reverts the operation that produced the event.
type EventSink interface {
	Publish(ctx context.Context, e *domain.Event) error
}

// Config wires a Ledger's dependencies. Tx must span the same underlying
// storage as Positions and State.
type Config struct {
	Positions storage.PositionStore
	Tiers     storage.TierStore
	State     storage.LedgerStateStore
	Tx        storage.TxStore
	Clock     Clock     // defaults to SystemClock
	Events    EventSink // optional event feed
}

// Ledger is the staking ledger. All operations run under one mutex, so each
// call observes and produces a fully consistent state; every operation
// validates first and only then mutates, so a rejected call changes nothing.
type Ledger struct {
	mu        sync.Mutex
	positions storage.PositionStore
	tiers     storage.TierStore
	state     storage.LedgerStateStore
	tx        storage.TxStore
	clock     Clock
	events    EventSink
}

// New creates a Ledger over the given stores. The ledger is usable for reads
// immediately; mutating operations require Init to have run (here or in a
// previous process against the same storage).
func New(cfg Config) (*Ledger, error) {
	if cfg.Positions == nil || cfg.Tiers == nil || cfg.State == nil || cfg.Tx == nil {
		return nil, errors.New("ledger: position, tier, state and tx stores are required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &Ledger{
		positions: cfg.Positions,
		tiers:     cfg.Tiers,
		state:     cfg.State,
		tx:        cfg.Tx,
		clock:     clock,
		events:    cfg.Events,
	}, nil
}

// Init sets the owner, credits the seed funding to the pooled balance, and
// installs the default tiers. It may run exactly once per ledger storage;
// the owner is immutable afterward. Seed funding exists to guarantee interest
// can be paid and is not attributed to any position.
func (l *Ledger) Init(ctx context.Context, owner common.Address, seedWei *big.Int) error {
	if seedWei == nil {
		seedWei = new(big.Int)
	}
	if seedWei.Sign() < 0 {
		return fmt.Errorf("init ledger: negative seed: %w", storage.ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.state.Init(ctx, &domain.LedgerState{Owner: owner, BalanceWei: seedWei}); err != nil {
		return fmt.Errorf("init ledger state: %w", err)
	}

	for _, tier := range domain.DefaultTiers {
		if err := l.tiers.Upsert(ctx, &tier); err != nil {
			return fmt.Errorf("install default tier %d: %w", tier.LockDays, err)
		}
	}

	return nil
}

// Initialized reports whether Init has run against the underlying storage.
func (l *Ledger) Initialized(ctx context.Context) (bool, error) {
	_, err := l.state.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read ledger state: %w", err)
	}
	return true, nil
}

// StakeEther creates a new position for caller. amountWei is the transferred
// principal and becomes part of the pooled balance. The interest rate is
// copied from the tier table at creation time; later tier edits do not affect
// the position. A zero amount is accepted and yields a degenerate position.
func (l *Ledger) StakeEther(ctx context.Context, caller common.Address, lockPeriodDays uint64, amountWei *big.Int) (*domain.Position, error) {
	if amountWei == nil {
		amountWei = new(big.Int)
	}
	if amountWei.Sign() < 0 {
		return nil, fmt.Errorf("stake: negative amount: %w", storage.ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rate, err := l.tiers.Rate(ctx, lockPeriodDays)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrUnsupportedLockPeriod
	}
	if err != nil {
		return nil, fmt.Errorf("stake: look up tier: %w", err)
	}

	nextID, err := l.positions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("stake: next position id: %w", err)
	}

	now := l.clock.Now().Unix()
	// The unlock date must stay representable as a Unix timestamp.
	if lockPeriodDays > uint64(math.MaxInt64-now)/domain.SecondsPerDay {
		return nil, domain.ErrUnsupportedLockPeriod
	}
	position := &domain.Position{
		PositionID:      nextID,
		WalletAddress:   caller,
		CreateDate:      now,
		UnlockDate:      now + int64(lockPeriodDays)*domain.SecondsPerDay,
		PercentInterest: rate,
		WeiStaked:       new(big.Int).Set(amountWei),
		WeiInterest:     domain.InterestFor(amountWei, rate),
		Open:            true,
	}

	// Everything is staged and validated; the insert and the balance credit
	// land in one atomic commit.
	if err := l.tx.CommitStake(ctx, position); err != nil {
		return nil, fmt.Errorf("stake: commit: %w", err)
	}

	l.publish(ctx, &domain.Event{
		Type:       domain.EventPositionOpened,
		PositionID: position.PositionID,
		Wallet:     caller.Hex(),
		LockDays:   lockPeriodDays,
		RateBps:    rate,
		AmountWei:  position.WeiStaked.String(),
		UnlockDate: position.UnlockDate,
		Timestamp:  now,
	})

	return position.Copy(), nil
}

// ModifyLockPeriods creates or overwrites the tier for days. Owner only. A
// new lock period is appended to the lock-period list; an existing one keeps
// its slot and only its rate changes. Positions already created keep the rate
// in effect at their creation.
func (l *Ledger) ModifyLockPeriods(ctx context.Context, caller common.Address, days, rateBps uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.state.Get(ctx)
	if err != nil {
		return fmt.Errorf("modify lock periods: read ledger state: %w", err)
	}
	if caller != state.Owner {
		return domain.ErrNotOwnerTier
	}

	if err := l.tiers.Upsert(ctx, &domain.Tier{LockDays: days, RateBps: rateBps}); err != nil {
		return fmt.Errorf("modify lock periods: %w", err)
	}

	l.publish(ctx, &domain.Event{
		Type:      domain.EventLockPeriodModified,
		Wallet:    caller.Hex(),
		LockDays:  days,
		RateBps:   rateBps,
		Timestamp: l.clock.Now().Unix(),
	})

	return nil
}

// ChangeUnlockDate overwrites the unlock date of a position. Owner only. No
// bounds validation: past dates make the position immediately
// interest-eligible, far-future dates defer it.
func (l *Ledger) ChangeUnlockDate(ctx context.Context, caller common.Address, positionID uint64, newUnlockDate int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.state.Get(ctx)
	if err != nil {
		return fmt.Errorf("change unlock date: read ledger state: %w", err)
	}
	if caller != state.Owner {
		return domain.ErrNotOwnerUnlockDate
	}

	if err := l.positions.SetUnlockDate(ctx, positionID, newUnlockDate); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrPositionNotFound
		}
		return fmt.Errorf("change unlock date: %w", err)
	}

	l.publish(ctx, &domain.Event{
		Type:       domain.EventUnlockDateChanged,
		PositionID: positionID,
		Wallet:     caller.Hex(),
		UnlockDate: newUnlockDate,
		Timestamp:  l.clock.Now().Unix(),
	})

	return nil
}

// ClosePosition closes an open position and pays the caller from the pooled
// balance. Only the wallet that created the position may close it. The payout
// is the principal, plus the precomputed interest when the current time has
// reached the unlock date; closing early forfeits the interest. The open flag
// flips exactly once, so a position can never pay out twice.
func (l *Ledger) ClosePosition(ctx context.Context, caller common.Address, positionID uint64) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	position, err := l.positions.GetByID(ctx, positionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("close position: %w", err)
	}

	if position.WalletAddress != caller {
		return nil, domain.ErrNotPositionCreator
	}
	if !position.Open {
		return nil, domain.ErrPositionNotOpen
	}

	now := l.clock.Now().Unix()
	payout := new(big.Int).Set(position.WeiStaked)
	if now >= position.UnlockDate {
		payout.Add(payout, position.WeiInterest)
	}

	// The open flip and the balance debit land in one atomic commit; if the
	// pooled balance cannot cover the payout nothing is written and the
	// position stays open and closable.
	if err := l.tx.CommitClose(ctx, positionID, payout); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, domain.ErrPositionNotFound
		case errors.Is(err, storage.ErrAlreadyClosed):
			return nil, domain.ErrPositionNotOpen
		case errors.Is(err, storage.ErrInsufficientBalance):
			return nil, domain.ErrInsufficientPoolBalance
		}
		return nil, fmt.Errorf("close position: commit: %w", err)
	}

	l.publish(ctx, &domain.Event{
		Type:       domain.EventPositionClosed,
		PositionID: positionID,
		Wallet:     caller.Hex(),
		AmountWei:  payout.String(),
		Timestamp:  now,
	})

	return payout, nil
}

// PositionByID returns the position record for an id. A never-assigned id
// yields a zero-valued record with Open=false rather than an error, matching
// uninitialized-slot read semantics.
func (l *Ledger) PositionByID(ctx context.Context, positionID uint64) (*domain.Position, error) {
	p, err := l.positions.GetByID(ctx, positionID)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.Position{
			WeiStaked:   new(big.Int),
			WeiInterest: new(big.Int),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// PositionIDsForAddress returns the ids of positions created by wallet, in
// creation order. Empty if the wallet never staked.
func (l *Ledger) PositionIDsForAddress(ctx context.Context, wallet common.Address) ([]uint64, error) {
	ids, err := l.positions.IDsByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("get position ids for address: %w", err)
	}
	return ids, nil
}

// InterestRate returns the basis-point rate for a lock period, or 0 when the
// period is unsupported.
func (l *Ledger) InterestRate(ctx context.Context, lockPeriodDays uint64) (uint64, error) {
	rate, err := l.tiers.Rate(ctx, lockPeriodDays)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get interest rate: %w", err)
	}
	return rate, nil
}

// LockPeriods returns the supported lock periods in insertion order.
func (l *Ledger) LockPeriods(ctx context.Context) ([]uint64, error) {
	periods, err := l.tiers.LockPeriods(ctx)
	if err != nil {
		return nil, fmt.Errorf("get lock periods: %w", err)
	}
	return periods, nil
}

// LockPeriodAt returns the lock period at the given list index.
func (l *Ledger) LockPeriodAt(ctx context.Context, index int) (uint64, error) {
	days, err := l.tiers.LockPeriodAt(ctx, index)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("lock period index %d: %w", index, err)
		}
		return 0, fmt.Errorf("get lock period at: %w", err)
	}
	return days, nil
}

// CurrentPositionID returns the next position id to assign.
func (l *Ledger) CurrentPositionID(ctx context.Context) (uint64, error) {
	count, err := l.positions.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("get current position id: %w", err)
	}
	return count, nil
}

// Owner returns the administrative owner address.
func (l *Ledger) Owner(ctx context.Context) (common.Address, error) {
	state, err := l.state.Get(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("get owner: %w", err)
	}
	return state.Owner, nil
}

// PoolBalance returns the pooled wei balance.
func (l *Ledger) PoolBalance(ctx context.Context) (*big.Int, error) {
	state, err := l.state.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get pool balance: %w", err)
	}
	return state.BalanceWei, nil
}

func (l *Ledger) publish(ctx context.Context, e *domain.Event) {
	if l.events == nil {
		return
	}
	// Best-effort: the event feed is observability, not ledger state.
	_ = l.events.Publish(ctx, e)
}
