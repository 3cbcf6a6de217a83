package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/types"
)

const (
	// TypeTokenTransfer is emitted for every fungible balance movement.
	TypeTokenTransfer = "bank.transfer"
	// TypeTokenApproval is emitted when an allowance changes.
	TypeTokenApproval = "bank.approval"
	// TypeRoleGranted is emitted when an address gains a role.
	TypeRoleGranted = "access.role.granted"
	// TypeRoleRevoked is emitted when an address loses a role.
	TypeRoleRevoked = "access.role.revoked"
)

// TokenTransfer captures a fungible balance movement. Mints originate from
// and burns go to the zero address.
type TokenTransfer struct {
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
}

// EventType implements the Event interface.
func (TokenTransfer) EventType() string { return TypeTokenTransfer }

// Event converts the transfer into the generic event payload.
func (e TokenTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransfer,
		Attributes: map[string]string{
			"token":  e.Token.Hex(),
			"from":   e.From.Hex(),
			"to":     e.To.Hex(),
			"amount": bigString(e.Amount),
		},
	}
}

// TokenApproval captures an allowance change.
type TokenApproval struct {
	Token   common.Address
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

// EventType implements the Event interface.
func (TokenApproval) EventType() string { return TypeTokenApproval }

// Event converts the approval into the generic event payload.
func (e TokenApproval) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenApproval,
		Attributes: map[string]string{
			"token":   e.Token.Hex(),
			"owner":   e.Owner.Hex(),
			"spender": e.Spender.Hex(),
			"amount":  bigString(e.Amount),
		},
	}
}

// RoleChanged captures a role grant or revocation.
type RoleChanged struct {
	Contract common.Address
	Role     string
	Account  common.Address
	Sender   common.Address
	Granted  bool
}

// EventType implements the Event interface.
func (e RoleChanged) EventType() string {
	if e.Granted {
		return TypeRoleGranted
	}
	return TypeRoleRevoked
}

// Event converts the role change into the generic event payload.
func (e RoleChanged) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"contract": e.Contract.Hex(),
			"role":     e.Role,
			"account":  e.Account.Hex(),
			"sender":   e.Sender.Hex(),
		},
	}
}
