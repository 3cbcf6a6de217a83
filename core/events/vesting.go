package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/types"
)

const (
	// TypeVestingGrantAdded is emitted when a qualifying mint creates a grant.
	TypeVestingGrantAdded = "vesting.grant.added"
	// TypeVestingTokensClaimed is emitted when vested tokens are paid out.
	TypeVestingTokensClaimed = "vesting.grant.claimed"
	// TypeVestingParametersSet is emitted when the owner replaces the reward
	// parameters.
	TypeVestingParametersSet = "vesting.parameters.set"
	// TypeVestingRescued is emitted when the owner sweeps a token balance.
	TypeVestingRescued = "vesting.rescued"
	// TypeOwnershipTransferred is emitted when a single-owner contract changes
	// hands.
	TypeOwnershipTransferred = "ownership.transferred"
)

// VestingGrantAdded captures a newly created grant.
type VestingGrantAdded struct {
	Engine         common.Address
	Beneficiary    common.Address
	Amount         *big.Int
	StartBlock     uint64
	DurationBlocks uint64
}

// EventType implements the Event interface.
func (VestingGrantAdded) EventType() string { return TypeVestingGrantAdded }

// Event converts the grant into the generic event payload.
func (e VestingGrantAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingGrantAdded,
		Attributes: map[string]string{
			"engine":         e.Engine.Hex(),
			"beneficiary":    e.Beneficiary.Hex(),
			"amount":         bigString(e.Amount),
			"startBlock":     strconv.FormatUint(e.StartBlock, 10),
			"durationBlocks": strconv.FormatUint(e.DurationBlocks, 10),
		},
	}
}

// VestingTokensClaimed captures a payout of vested tokens.
type VestingTokensClaimed struct {
	Engine      common.Address
	Beneficiary common.Address
	Amount      *big.Int
	Claimed     *big.Int
}

// EventType implements the Event interface.
func (VestingTokensClaimed) EventType() string { return TypeVestingTokensClaimed }

// Event converts the claim into the generic event payload.
func (e VestingTokensClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingTokensClaimed,
		Attributes: map[string]string{
			"engine":      e.Engine.Hex(),
			"beneficiary": e.Beneficiary.Hex(),
			"amount":      bigString(e.Amount),
			"claimed":     bigString(e.Claimed),
		},
	}
}

// VestingParametersSet captures a reward parameter replacement.
type VestingParametersSet struct {
	Engine              common.Address
	EarnStartBlock      uint64
	EarnEndBlock        uint64
	EligibleExtraStart  *big.Int
	EligibleExtraEnd    *big.Int
	VestingDurationDays uint64
	RewardAmount        *big.Int
}

// EventType implements the Event interface.
func (VestingParametersSet) EventType() string { return TypeVestingParametersSet }

// Event converts the parameters into the generic event payload.
func (e VestingParametersSet) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingParametersSet,
		Attributes: map[string]string{
			"engine":              e.Engine.Hex(),
			"earnStartBlock":      strconv.FormatUint(e.EarnStartBlock, 10),
			"earnEndBlock":        strconv.FormatUint(e.EarnEndBlock, 10),
			"eligibleExtraStart":  bigString(e.EligibleExtraStart),
			"eligibleExtraEnd":    bigString(e.EligibleExtraEnd),
			"vestingDurationDays": strconv.FormatUint(e.VestingDurationDays, 10),
			"rewardAmount":        bigString(e.RewardAmount),
		},
	}
}

// VestingRescued captures a rescue sweep.
type VestingRescued struct {
	Engine    common.Address
	Token     common.Address
	Recipient common.Address
	Amount    *big.Int
}

// EventType implements the Event interface.
func (VestingRescued) EventType() string { return TypeVestingRescued }

// Event converts the rescue into the generic event payload.
func (e VestingRescued) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingRescued,
		Attributes: map[string]string{
			"engine":    e.Engine.Hex(),
			"token":     e.Token.Hex(),
			"recipient": e.Recipient.Hex(),
			"amount":    bigString(e.Amount),
		},
	}
}

// OwnershipTransferred captures a change of contract owner.
type OwnershipTransferred struct {
	Contract common.Address
	Previous common.Address
	Next     common.Address
}

// EventType implements the Event interface.
func (OwnershipTransferred) EventType() string { return TypeOwnershipTransferred }

// Event converts the ownership change into the generic event payload.
func (e OwnershipTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeOwnershipTransferred,
		Attributes: map[string]string{
			"contract": e.Contract.Hex(),
			"previous": e.Previous.Hex(),
			"next":     e.Next.Hex(),
		},
	}
}
