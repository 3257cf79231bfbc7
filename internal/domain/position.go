package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BasisPointDivisor converts basis points to a fraction (1 bps = 1/10000).
const BasisPointDivisor = 10_000

// SecondsPerDay is used to derive unlock dates from lock periods.
const SecondsPerDay = 86_400

// Position represents one staking deposit with its terms and status.
// Corresponds to the positions table in PostgreSQL.
type Position struct {
	PositionID      uint64         // unique, dense, assigned from 0
	WalletAddress   common.Address // creator; the only wallet allowed to close
	CreateDate      int64          // Unix timestamp in seconds
	UnlockDate      int64          // CreateDate + lockDays*86400; owner-mutable
	PercentInterest uint64         // basis points, copied from the tier table at creation
	WeiStaked       *big.Int       // deposited principal in wei
	WeiInterest     *big.Int       // floor(WeiStaked * PercentInterest / 10000)
	Open            bool           // true until closed; flips exactly once
}

// Copy returns a deep copy of the position. big.Int fields are cloned so the
// caller cannot mutate store-owned state through the returned value.
func (p *Position) Copy() *Position {
	if p == nil {
		return nil
	}
	out := *p
	out.WeiStaked = cloneWei(p.WeiStaked)
	out.WeiInterest = cloneWei(p.WeiInterest)
	return &out
}

// InterestFor computes floor(staked * rateBps / 10000) in wei.
func InterestFor(staked *big.Int, rateBps uint64) *big.Int {
	if staked == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(staked, new(big.Int).SetUint64(rateBps))
	return out.Div(out, big.NewInt(BasisPointDivisor))
}

func cloneWei(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
