package nft

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "nftbridge/native/common"
)

// MintHook is notified after a public mint. Caller is the ledger address and
// operator the account that submitted the mint.
type MintHook interface {
	OnMint(caller, operator, to common.Address, tokenID, extra *big.Int) error
}

// BurnHook is notified after a burn.
type BurnHook interface {
	OnBurn(caller common.Address, tokenID *big.Int) error
}

// TransferHook is notified after an ownership transfer.
type TransferHook interface {
	OnTransfer(caller, from, to common.Address, tokenID *big.Int) error
}

// TokenReceiver is implemented by contracts that accept safe transfers.
type TokenReceiver interface {
	OnERC721Received(operator, from common.Address, tokenID *big.Int, data []byte) (bool, error)
}

// Hook kinds as recorded in hook change events.
const (
	HookMint     = "mint"
	HookBurn     = "burn"
	HookTransfer = "transfer"
)

// HookDispatcher forwards ledger notifications to the configured receivers.
// Receivers are looked up at dispatch time; a zero address disables the hook.
type HookDispatcher struct {
	env    nativecommon.Env
	ledger common.Address
}

func newHookDispatcher(env nativecommon.Env, ledger common.Address) *HookDispatcher {
	return &HookDispatcher{env: env, ledger: ledger}
}

func (d *HookDispatcher) resolve(kind string, receiver common.Address) (any, error) {
	impl, ok := d.env.Resolve(receiver)
	if !ok {
		return nil, fmt.Errorf("%w: %s hook %s not deployed", ErrHookUnavailable, kind, receiver.Hex())
	}
	return impl, nil
}

// DispatchMint notifies the mint receiver, if any.
func (d *HookDispatcher) DispatchMint(receiver, operator, to common.Address, tokenID, extra *big.Int) error {
	if receiver == (common.Address{}) {
		return nil
	}
	impl, err := d.resolve(HookMint, receiver)
	if err != nil {
		return err
	}
	hook, ok := impl.(MintHook)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHookUnavailable, HookMint)
	}
	return hook.OnMint(d.ledger, operator, to, new(big.Int).Set(tokenID), new(big.Int).Set(extra))
}

// DispatchBurn notifies the burn receiver, if any.
func (d *HookDispatcher) DispatchBurn(receiver common.Address, tokenID *big.Int) error {
	if receiver == (common.Address{}) {
		return nil
	}
	impl, err := d.resolve(HookBurn, receiver)
	if err != nil {
		return err
	}
	hook, ok := impl.(BurnHook)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHookUnavailable, HookBurn)
	}
	return hook.OnBurn(d.ledger, new(big.Int).Set(tokenID))
}

// DispatchTransfer notifies the transfer receiver, if any.
func (d *HookDispatcher) DispatchTransfer(receiver, from, to common.Address, tokenID *big.Int) error {
	if receiver == (common.Address{}) {
		return nil
	}
	impl, err := d.resolve(HookTransfer, receiver)
	if err != nil {
		return err
	}
	hook, ok := impl.(TransferHook)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHookUnavailable, HookTransfer)
	}
	return hook.OnTransfer(d.ledger, from, to, new(big.Int).Set(tokenID))
}
