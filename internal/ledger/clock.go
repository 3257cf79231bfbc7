package ledger

import "time"

// Clock supplies the ledger timestamp. Payout eligibility is a pure function
// of this clock, so tests substitute a fake to move past unlock dates.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
