package nft

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/events"
	"nftbridge/core/state"
	"nftbridge/native/access"
	nativecommon "nftbridge/native/common"
)

// FeeCurrency is the balance store mint fees are paid in.
type FeeCurrency interface {
	BalanceOf(account common.Address) (*big.Int, error)
	Transfer(from, to common.Address, amount *big.Int) error
}

var depositArgs = func() abi.Arguments {
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Name: "tokenId", Type: uint256Type}}
}()

// EncodeDepositPayload ABI-encodes a token id the way the bridge relays it.
func EncodeDepositPayload(tokenID *big.Int) ([]byte, error) {
	if !nativecommon.IsUint256(tokenID) {
		return nil, ErrInvalidTokenID
	}
	return depositArgs.Pack(tokenID)
}

// DecodeDepositPayload extracts the token id from a deposit payload. The
// payload must be exactly one 32-byte word.
func DecodeDepositPayload(payload []byte) (*big.Int, error) {
	if len(payload) != 32 {
		return nil, ErrInvalidPayload
	}
	values, err := depositArgs.Unpack(payload)
	if err != nil || len(values) != 1 {
		return nil, ErrInvalidPayload
	}
	id, ok := values[0].(*big.Int)
	if !ok {
		return nil, ErrInvalidPayload
	}
	return id, nil
}

// ChildLedger is the fee-gated, signature-minted side of the bridge. Tokens
// leave it through Withdraw and come back through Deposit.
type ChildLedger struct {
	*Ledger
	fees FeeCurrency
}

// DeployChild creates a child ledger at address.
func DeployChild(env nativecommon.Env, st ledgerState, address common.Address, fees FeeCurrency, cfg Config) (*ChildLedger, error) {
	l := &ChildLedger{Ledger: newLedger(env, st, address, VariantChild), fees: fees}
	if err := l.deploy(cfg); err != nil {
		return nil, err
	}
	return l, nil
}

// OpenChild attaches to a child ledger deployed earlier.
func OpenChild(env nativecommon.Env, st ledgerState, address common.Address, fees FeeCurrency) (*ChildLedger, error) {
	l := &ChildLedger{Ledger: newLedger(env, st, address, VariantChild), fees: fees}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// MintFee returns the exact payment required from callers without the
// Minter role.
func (l *ChildLedger) MintFee() (*big.Int, error) {
	settings, err := l.settings()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(settings.MintFee), nil
}

// SetMintFee replaces the mint fee. Admin only.
func (l *ChildLedger) SetMintFee(caller common.Address, fee *big.Int) error {
	if !nativecommon.IsUint256(fee) {
		return ErrInvalidFee
	}
	return l.updateSettings(caller, func(s *state.NFTSettings) events.Event {
		s.MintFee = new(big.Int).Set(fee)
		return events.NFTMintFeeSet{Ledger: l.address, Fee: new(big.Int).Set(fee)}
	})
}

// Mint mints tokenID to the caller. The authorization must name the caller as
// recipient.
func (l *ChildLedger) Mint(call nativecommon.Call, tokenID, extra *big.Int, sig []byte) error {
	return l.MintTo(call, call.Sender, tokenID, extra, sig)
}

// MintTo mints tokenID to to under a Minter-signed authorization, charging
// the mint fee unless the caller holds the Minter role. The mint hook runs
// after the token exists.
func (l *ChildLedger) MintTo(call nativecommon.Call, to common.Address, tokenID, extra *big.Int, sig []byte) error {
	if extra == nil {
		extra = new(big.Int)
	}
	return l.env.Atomic(func() error {
		if err := l.collectFee(call); err != nil {
			return err
		}
		if _, err := l.verifier.Verify(MintAuthorization{To: to, TokenID: tokenID, Extra: extra}, sig); err != nil {
			return err
		}
		withdrawn, err := l.state.NFTWithdrawn(l.address, tokenID)
		if err != nil {
			return err
		}
		if withdrawn {
			return ErrExistsOnRootChain
		}
		if err := l.mint(to, tokenID, extra, nil); err != nil {
			return err
		}
		receiver, err := l.OnMint()
		if err != nil {
			return err
		}
		return l.hooks.DispatchMint(receiver, call.Sender, to, tokenID, extra)
	})
}

func (l *ChildLedger) collectFee(call nativecommon.Call) error {
	paid := call.AttachedValue()
	if !l.roles.Has(access.RoleMinter, call.Sender) {
		fee, err := l.MintFee()
		if err != nil {
			return err
		}
		if paid.Cmp(fee) != 0 {
			return ErrFeeMismatch
		}
	}
	if paid.Sign() == 0 {
		return nil
	}
	return l.fees.Transfer(call.Sender, l.address, paid)
}

// WithdrawFees sends every collected fee to the caller. Withdrawer only.
func (l *ChildLedger) WithdrawFees(caller common.Address) (*big.Int, error) {
	var amount *big.Int
	err := l.env.Atomic(func() error {
		if err := l.roles.Require(access.RoleWithdrawer, caller); err != nil {
			return err
		}
		balance, err := l.fees.BalanceOf(l.address)
		if err != nil {
			return err
		}
		amount = balance
		if balance.Sign() > 0 {
			if err := l.fees.Transfer(l.address, caller, balance); err != nil {
				return err
			}
		}
		l.state.AddLog(events.NFTFeesWithdrawn{Ledger: l.address, Recipient: caller, Amount: new(big.Int).Set(balance)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// IsWithdrawn reports whether tokenID currently lives on the root ledger.
func (l *ChildLedger) IsWithdrawn(tokenID *big.Int) (bool, error) {
	if !nativecommon.IsUint256(tokenID) {
		return false, ErrInvalidTokenID
	}
	return l.state.NFTWithdrawn(l.address, tokenID)
}

// Withdraw burns the caller's token and records that it now lives on the root
// ledger. Only the owner may withdraw. No hooks are notified.
func (l *ChildLedger) Withdraw(caller common.Address, tokenID *big.Int) error {
	return l.env.Atomic(func() error {
		owner, err := l.OwnerOf(tokenID)
		if err != nil {
			return err
		}
		if owner != caller {
			return ErrNotOwner
		}
		if _, err := l.burn(tokenID); err != nil {
			return err
		}
		if err := l.state.NFTWithdrawnPut(l.address, tokenID, true); err != nil {
			return err
		}
		l.state.AddLog(events.NFTWithdrawn{Ledger: l.address, Owner: owner, TokenID: new(big.Int).Set(tokenID)})
		return nil
	})
}

// Deposit finalises a bridge deposit by minting the token id encoded in
// payload to user. Depositor only; no fee, signature or hook.
func (l *ChildLedger) Deposit(caller, user common.Address, payload []byte) error {
	return l.env.Atomic(func() error {
		if err := l.roles.Require(access.RoleDepositor, caller); err != nil {
			return err
		}
		tokenID, err := DecodeDepositPayload(payload)
		if err != nil {
			return err
		}
		if err := l.state.NFTWithdrawnPut(l.address, tokenID, false); err != nil {
			return err
		}
		if err := l.mint(user, tokenID, nil, nil); err != nil {
			return err
		}
		l.state.AddLog(events.NFTDeposited{Ledger: l.address, Depositor: caller, User: user, TokenID: tokenID})
		return nil
	})
}
