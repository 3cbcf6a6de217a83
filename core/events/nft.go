package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/types"
)

const (
	// TypeNFTTransfer is emitted for every ownership change, including mints
	// (from the zero address) and burns (to the zero address).
	TypeNFTTransfer = "nft.transfer"
	// TypeNFTApproval is emitted when a single-token approval changes.
	TypeNFTApproval = "nft.approval"
	// TypeNFTApprovalForAll is emitted when an operator approval changes.
	TypeNFTApprovalForAll = "nft.approval_for_all"
	// TypeNFTWithdrawn is emitted when a token leaves the child ledger for the
	// root ledger. Relayers build exit proofs from it.
	TypeNFTWithdrawn = "nft.withdrawn"
	// TypeNFTDeposited is emitted when a depositor finalises a bridge deposit.
	TypeNFTDeposited = "nft.deposited"
	// TypeNFTMintFeeSet is emitted when the admin changes the mint fee.
	TypeNFTMintFeeSet = "nft.mint_fee.set"
	// TypeNFTBaseURISet is emitted when the admin changes the base token URI.
	TypeNFTBaseURISet = "nft.base_uri.set"
	// TypeNFTHookSet is emitted when the admin changes a hook receiver.
	TypeNFTHookSet = "nft.hook.set"
	// TypeNFTFeesWithdrawn is emitted when collected mint fees are drained.
	TypeNFTFeesWithdrawn = "nft.fees.withdrawn"
)

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NFTTransfer captures a change of token ownership.
type NFTTransfer struct {
	Ledger  common.Address
	From    common.Address
	To      common.Address
	TokenID *big.Int
}

// EventType implements the Event interface.
func (NFTTransfer) EventType() string { return TypeNFTTransfer }

// Event converts the transfer into the generic event payload.
func (e NFTTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTTransfer,
		Attributes: map[string]string{
			"ledger":  e.Ledger.Hex(),
			"from":    e.From.Hex(),
			"to":      e.To.Hex(),
			"tokenId": bigString(e.TokenID),
		},
	}
}

// NFTApproval captures a single-token approval.
type NFTApproval struct {
	Ledger   common.Address
	Owner    common.Address
	Approved common.Address
	TokenID  *big.Int
}

// EventType implements the Event interface.
func (NFTApproval) EventType() string { return TypeNFTApproval }

// Event converts the approval into the generic event payload.
func (e NFTApproval) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTApproval,
		Attributes: map[string]string{
			"ledger":   e.Ledger.Hex(),
			"owner":    e.Owner.Hex(),
			"approved": e.Approved.Hex(),
			"tokenId":  bigString(e.TokenID),
		},
	}
}

// NFTApprovalForAll captures an operator approval change.
type NFTApprovalForAll struct {
	Ledger   common.Address
	Owner    common.Address
	Operator common.Address
	Approved bool
}

// EventType implements the Event interface.
func (NFTApprovalForAll) EventType() string { return TypeNFTApprovalForAll }

// Event converts the operator approval into the generic event payload.
func (e NFTApprovalForAll) Event() *types.Event {
	approved := "false"
	if e.Approved {
		approved = "true"
	}
	return &types.Event{
		Type: TypeNFTApprovalForAll,
		Attributes: map[string]string{
			"ledger":   e.Ledger.Hex(),
			"owner":    e.Owner.Hex(),
			"operator": e.Operator.Hex(),
			"approved": approved,
		},
	}
}

// NFTWithdrawn captures a token leaving the child ledger.
type NFTWithdrawn struct {
	Ledger  common.Address
	Owner   common.Address
	TokenID *big.Int
}

// EventType implements the Event interface.
func (NFTWithdrawn) EventType() string { return TypeNFTWithdrawn }

// Event converts the withdrawal into the generic event payload.
func (e NFTWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTWithdrawn,
		Attributes: map[string]string{
			"ledger":  e.Ledger.Hex(),
			"owner":   e.Owner.Hex(),
			"tokenId": bigString(e.TokenID),
		},
	}
}

// NFTDeposited captures a bridge deposit finalised on the child ledger.
type NFTDeposited struct {
	Ledger    common.Address
	Depositor common.Address
	User      common.Address
	TokenID   *big.Int
}

// EventType implements the Event interface.
func (NFTDeposited) EventType() string { return TypeNFTDeposited }

// Event converts the deposit into the generic event payload.
func (e NFTDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTDeposited,
		Attributes: map[string]string{
			"ledger":    e.Ledger.Hex(),
			"depositor": e.Depositor.Hex(),
			"user":      e.User.Hex(),
			"tokenId":   bigString(e.TokenID),
		},
	}
}

// NFTMintFeeSet captures a mint fee change.
type NFTMintFeeSet struct {
	Ledger common.Address
	Fee    *big.Int
}

// EventType implements the Event interface.
func (NFTMintFeeSet) EventType() string { return TypeNFTMintFeeSet }

// Event converts the fee change into the generic event payload.
func (e NFTMintFeeSet) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTMintFeeSet,
		Attributes: map[string]string{
			"ledger": e.Ledger.Hex(),
			"fee":    bigString(e.Fee),
		},
	}
}

// NFTBaseURISet captures a base token URI change.
type NFTBaseURISet struct {
	Ledger common.Address
	URI    string
}

// EventType implements the Event interface.
func (NFTBaseURISet) EventType() string { return TypeNFTBaseURISet }

// Event converts the URI change into the generic event payload.
func (e NFTBaseURISet) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTBaseURISet,
		Attributes: map[string]string{
			"ledger": e.Ledger.Hex(),
			"uri":    e.URI,
		},
	}
}

// NFTHookSet captures a hook receiver change. Kind is one of "mint", "burn"
// or "transfer".
type NFTHookSet struct {
	Ledger   common.Address
	Kind     string
	Receiver common.Address
}

// EventType implements the Event interface.
func (NFTHookSet) EventType() string { return TypeNFTHookSet }

// Event converts the hook change into the generic event payload.
func (e NFTHookSet) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTHookSet,
		Attributes: map[string]string{
			"ledger":   e.Ledger.Hex(),
			"kind":     e.Kind,
			"receiver": e.Receiver.Hex(),
		},
	}
}

// NFTFeesWithdrawn captures collected fees leaving the ledger.
type NFTFeesWithdrawn struct {
	Ledger    common.Address
	Recipient common.Address
	Amount    *big.Int
}

// EventType implements the Event interface.
func (NFTFeesWithdrawn) EventType() string { return TypeNFTFeesWithdrawn }

// Event converts the fee withdrawal into the generic event payload.
func (e NFTFeesWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTFeesWithdrawn,
		Attributes: map[string]string{
			"ledger":    e.Ledger.Hex(),
			"recipient": e.Recipient.Hex(),
			"amount":    bigString(e.Amount),
		},
	}
}
