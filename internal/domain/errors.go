package domain

// ErrorKind classifies why a ledger operation was rejected.
type ErrorKind string

// Error kinds. Every rejection is all-or-nothing: no state changes before the
// error is returned.
const (
	KindAccessDenied    ErrorKind = "ACCESS_DENIED"
	KindInvalidArgument ErrorKind = "INVALID_ARGUMENT"
	KindState           ErrorKind = "STATE"
	KindResource        ErrorKind = "RESOURCE"
)

// RevertError is returned by ledger operations that reject a call. The Reason
// strings are part of the external contract and must be reproduced verbatim.
type RevertError struct {
	Kind   ErrorKind
	Reason string
}

func (e *RevertError) Error() string { return e.Reason }

// Is matches by kind and reason so errors.Is works against the predeclared
// values below even after wrapping.
func (e *RevertError) Is(target error) bool {
	t, ok := target.(*RevertError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

// Rejections surfaced by ledger operations.
var (
	// ErrNotOwnerTier rejects tier mutation by anyone but the owner.
	ErrNotOwnerTier = &RevertError{Kind: KindAccessDenied, Reason: "Only owner may modify staking periods"}

	// ErrNotOwnerUnlockDate rejects unlock-date mutation by anyone but the
	// owner. The reason string differs from ErrNotOwnerTier by one character;
	// both are preserved as-is for message compatibility.
	ErrNotOwnerUnlockDate = &RevertError{Kind: KindAccessDenied, Reason: "Only owner may modify staking period"}

	// ErrNotPositionCreator rejects closure by any wallet other than the one
	// that created the position.
	ErrNotPositionCreator = &RevertError{Kind: KindAccessDenied, Reason: "Only position creator may modify position"}

	// ErrUnsupportedLockPeriod rejects stakes against a lock period that has
	// no tier table entry.
	ErrUnsupportedLockPeriod = &RevertError{Kind: KindInvalidArgument, Reason: "Unsupported lock period"}

	// ErrPositionNotFound rejects closure of a position id that was never
	// assigned.
	ErrPositionNotFound = &RevertError{Kind: KindState, Reason: "Position does not exist"}

	// ErrPositionNotOpen rejects a second closure of the same position.
	ErrPositionNotOpen = &RevertError{Kind: KindState, Reason: "Position is closed"}

	// ErrInsufficientPoolBalance rejects a payout that exceeds the pooled
	// balance. Fatal for the single operation only; the ledger stays usable.
	ErrInsufficientPoolBalance = &RevertError{Kind: KindResource, Reason: "Insufficient pooled balance"}
)
