package common

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Env exposes the execution context a ledger module runs in.
type Env interface {
	// ChainID identifies the chain the module is deployed on.
	ChainID() *big.Int
	// BlockNumber returns the height of the block being executed.
	BlockNumber() uint64
	// Atomic runs fn inside a state snapshot. Any error reverts every write
	// and event recorded by fn, including nested module calls.
	Atomic(fn func() error) error
	// Resolve returns the module deployed at addr, if any.
	Resolve(addr ethcommon.Address) (any, bool)
}

// Call describes the sender and attached native value of a payable call.
type Call struct {
	Sender ethcommon.Address
	Value  *big.Int
}

// AttachedValue returns the attached value, treating nil as zero.
func (c Call) AttachedValue() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return c.Value
}

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// IsUint256 reports whether v is a non-nil value in [0, 2^256).
func IsUint256(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(maxUint256) <= 0
}

// MaxUint256 returns a copy of 2^256-1.
func MaxUint256() *big.Int {
	return new(big.Int).Set(maxUint256)
}
