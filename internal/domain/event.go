package domain

import "context"

// EventType identifies one kind of ledger event.
type EventType string

// Event types emitted by the ledger.
const (
	EventPositionOpened     EventType = "POSITION_OPENED"
	EventPositionClosed     EventType = "POSITION_CLOSED"
	EventLockPeriodModified EventType = "LOCK_PERIOD_MODIFIED"
	EventUnlockDateChanged  EventType = "UNLOCK_DATE_CHANGED"
)

// Event is one entry in the ledger's observable event feed. Wei amounts are
// decimal strings so the JSON encoding is lossless.
type Event struct {
	Type       EventType `json:"type"`
	PositionID uint64    `json:"positionId,omitempty"`
	Wallet     string    `json:"wallet,omitempty"`
	LockDays   uint64    `json:"lockDays,omitempty"`
	RateBps    uint64    `json:"rateBps,omitempty"`
	AmountWei  string    `json:"amountWei,omitempty"` // staked on open, paid out on close
	UnlockDate int64     `json:"unlockDate,omitempty"`
	Timestamp  int64     `json:"timestamp"`
}

// EventBus carries marshaled ledger events between the ledger and external
// observers (WebSocket clients, auditing consumers).
type EventBus interface {
	// Publish sends a raw payload to the ledger event channel.
	Publish(ctx context.Context, payload []byte) error

	// Subscribe returns a read-only channel of raw payloads. The channel is
	// closed when ctx is cancelled.
	Subscribe(ctx context.Context) (<-chan []byte, error)
}
