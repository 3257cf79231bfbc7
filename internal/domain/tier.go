package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Tier pairs a lock period (in days) with its interest rate (basis points).
type Tier struct {
	LockDays uint64
	RateBps  uint64
}

// DefaultTiers are installed when a ledger is initialized.
var DefaultTiers = []Tier{
	{LockDays: 30, RateBps: 700},
	{LockDays: 90, RateBps: 1000},
	{LockDays: 180, RateBps: 1200},
}

// LedgerState holds the singleton ledger row: the administrative owner and
// the pooled wei balance (sum of open principal plus the owner-funded buffer
// that covers interest payouts).
type LedgerState struct {
	Owner      common.Address
	BalanceWei *big.Int
}

// Copy returns a deep copy of the state.
func (s *LedgerState) Copy() *LedgerState {
	if s == nil {
		return nil
	}
	out := *s
	out.BalanceWei = cloneWei(s.BalanceWei)
	return &out
}
