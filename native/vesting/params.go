package vesting

import (
	"math/big"

	"github.com/holiman/uint256"

	nativecommon "nftbridge/native/common"
)

const (
	// MaxVestingDurationDays caps a vesting schedule at 25 years.
	MaxVestingDurationDays = 25 * 365
	// DefaultBlocksPerDay assumes two-second blocks.
	DefaultBlocksPerDay = 43200
)

// Params gate grant creation and size new grants. Replacing them never
// changes grants that already exist.
type Params struct {
	EarnStartBlock      uint64
	EarnEndBlock        uint64
	EligibleExtraStart  *big.Int
	EligibleExtraEnd    *big.Int
	VestingDurationDays uint64
	RewardAmount        *big.Int
}

// Validate checks the ordering and range invariants.
func (p Params) Validate() error {
	if p.EarnStartBlock > p.EarnEndBlock {
		return ErrEarnWindow
	}
	start, end := zero(p.EligibleExtraStart), zero(p.EligibleExtraEnd)
	if !nativecommon.IsUint256(start) || !nativecommon.IsUint256(end) {
		return ErrInvalidAmount
	}
	if start.Cmp(end) > 0 {
		return ErrExtraWindow
	}
	if p.VestingDurationDays == 0 {
		return ErrDurationZero
	}
	if p.VestingDurationDays > MaxVestingDurationDays {
		return ErrDurationTooLong
	}
	if !nativecommon.IsUint256(zero(p.RewardAmount)) {
		return ErrInvalidAmount
	}
	return nil
}

// eligible reports whether a mint at block with the given extra falls inside
// both windows.
func (p Params) eligible(block uint64, extra *big.Int) bool {
	if block < p.EarnStartBlock || block > p.EarnEndBlock {
		return false
	}
	return extra.Cmp(p.EligibleExtraStart) >= 0 && extra.Cmp(p.EligibleExtraEnd) <= 0
}

// Grant is a beneficiary's one-time vesting entitlement.
type Grant struct {
	Amount         *big.Int
	StartBlock     uint64
	DurationBlocks uint64
	Claimed        *big.Int
}

// Vested returns the portion of the grant released at block:
// amount * min(elapsed, duration) / duration.
func (g Grant) Vested(block uint64) (*big.Int, error) {
	amount := zero(g.Amount)
	if amount.Sign() == 0 || block <= g.StartBlock {
		return new(big.Int), nil
	}
	elapsed := block - g.StartBlock
	if g.DurationBlocks == 0 || elapsed >= g.DurationBlocks {
		return new(big.Int).Set(amount), nil
	}
	a, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrMathOverflow
	}
	vested, overflow := new(uint256.Int).MulDivOverflow(a, uint256.NewInt(elapsed), uint256.NewInt(g.DurationBlocks))
	if overflow {
		return nil, ErrMathOverflow
	}
	return vested.ToBig(), nil
}

// Claimable returns the vested amount not yet claimed at block.
func (g Grant) Claimable(block uint64) (*big.Int, error) {
	vested, err := g.Vested(block)
	if err != nil {
		return nil, err
	}
	claimable := vested.Sub(vested, zero(g.Claimed))
	if claimable.Sign() < 0 {
		return new(big.Int), nil
	}
	return claimable, nil
}

func zero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
