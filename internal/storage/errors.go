package storage

import "errors"

// Storage errors shared by all implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrAlreadyClosed is returned by PositionStore.Close when the position
	// exists but its open flag is already false. Closed is terminal.
	ErrAlreadyClosed = errors.New("position already closed")

	// ErrInsufficientBalance is returned by TxStore.CommitClose when the
	// pooled balance cannot cover the payout. Nothing is written.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
