package bank

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/events"
	"nftbridge/core/state"
	"nftbridge/native/access"
	nativecommon "nftbridge/native/common"
)

// NativeCoinAddress hosts the chain's native currency. Mint fees are paid in
// it.
var NativeCoinAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

var (
	ErrInsufficientBalance   = nativecommon.NewError(nativecommon.ErrInsufficientBalance, "bank: transfer amount exceeds balance")
	ErrInsufficientAllowance = nativecommon.NewError(nativecommon.ErrInsufficientBalance, "bank: insufficient allowance")
	ErrZeroAddress           = nativecommon.NewError(nativecommon.ErrInvalidParameters, "bank: zero address")
	ErrInvalidAmount         = nativecommon.NewError(nativecommon.ErrInvalidParameters, "bank: amount must be a uint256")
	ErrTokenNotFound         = nativecommon.NewError(nativecommon.ErrNotFound, "bank: token not deployed")
)

type tokenState interface {
	Balance(token [20]byte, account [20]byte) (*big.Int, error)
	SetBalance(token [20]byte, account [20]byte, amount *big.Int) error
	Allowance(token [20]byte, owner [20]byte, spender [20]byte) (*big.Int, error)
	SetAllowance(token [20]byte, owner [20]byte, spender [20]byte, amount *big.Int) error
	TotalSupply(token [20]byte) (*big.Int, error)
	SetTotalSupply(token [20]byte, amount *big.Int) error
	TokenMetadata(token [20]byte) (*state.TokenMetadata, bool, error)
	SetTokenMetadata(token [20]byte, meta *state.TokenMetadata) error
	SetRole(scope [20]byte, role [32]byte, addr [20]byte) error
	RemoveRole(scope [20]byte, role [32]byte, addr [20]byte) error
	RoleMembers(scope [20]byte, role [32]byte) ([][20]byte, error)
	HasRole(scope [20]byte, role [32]byte, addr [20]byte) bool
	AddLog(evt events.Event)
}

// Token is a fungible balance ledger living at a fixed address.
type Token struct {
	env     nativecommon.Env
	state   tokenState
	address common.Address
	meta    state.TokenMetadata
	roles   *access.Registry
}

// Deploy creates a token at address and makes admin its admin.
func Deploy(env nativecommon.Env, st tokenState, address common.Address, meta state.TokenMetadata, admin common.Address) (*Token, error) {
	if strings.TrimSpace(meta.Symbol) == "" {
		return nil, fmt.Errorf("bank: token symbol required")
	}
	t := &Token{
		env:     env,
		state:   st,
		address: address,
		meta:    meta,
		roles:   access.NewRegistry(env, st, address, "bank"),
	}
	err := env.Atomic(func() error {
		if _, exists, err := st.TokenMetadata(address); err != nil {
			return err
		} else if exists {
			return nativecommon.NewError(nativecommon.ErrAlreadyExists, "bank: token already deployed")
		}
		if err := st.SetTokenMetadata(address, &meta); err != nil {
			return err
		}
		if admin == (common.Address{}) {
			return nil
		}
		return t.roles.Seed(access.RoleAdmin, admin)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Load attaches to a token previously created with Deploy.
func Load(env nativecommon.Env, st tokenState, address common.Address) (*Token, error) {
	meta, ok, err := st.TokenMetadata(address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &Token{
		env:     env,
		state:   st,
		address: address,
		meta:    *meta,
		roles:   access.NewRegistry(env, st, address, "bank"),
	}, nil
}

func (t *Token) Address() common.Address { return t.address }
func (t *Token) Name() string            { return t.meta.Name }
func (t *Token) Symbol() string          { return t.meta.Symbol }
func (t *Token) Decimals() uint8         { return t.meta.Decimals }

// Roles exposes the token's access registry.
func (t *Token) Roles() *access.Registry { return t.roles }

// TotalSupply returns the circulating supply.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.state.TotalSupply(t.address)
}

// BalanceOf returns the balance held by account.
func (t *Token) BalanceOf(account common.Address) (*big.Int, error) {
	return t.state.Balance(t.address, account)
}

// Allowance returns how much spender may move on behalf of owner.
func (t *Token) Allowance(owner, spender common.Address) (*big.Int, error) {
	return t.state.Allowance(t.address, owner, spender)
}

// Transfer moves amount from from to to. The caller is responsible for
// having authenticated from.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	return t.env.Atomic(func() error {
		return t.move(from, to, amount)
	})
}

// Approve sets the allowance of spender over owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	return t.env.Atomic(func() error {
		if owner == (common.Address{}) || spender == (common.Address{}) {
			return ErrZeroAddress
		}
		if !nativecommon.IsUint256(amount) {
			return ErrInvalidAmount
		}
		if err := t.state.SetAllowance(t.address, owner, spender, amount); err != nil {
			return err
		}
		t.state.AddLog(events.TokenApproval{Token: t.address, Owner: owner, Spender: spender, Amount: new(big.Int).Set(amount)})
		return nil
	})
}

// TransferFrom moves amount from from to to using spender's allowance. An
// allowance of 2^256-1 is never decremented.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	return t.env.Atomic(func() error {
		if !nativecommon.IsUint256(amount) {
			return ErrInvalidAmount
		}
		allowance, err := t.state.Allowance(t.address, from, spender)
		if err != nil {
			return err
		}
		if allowance.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
		if allowance.Cmp(nativecommon.MaxUint256()) != 0 {
			if err := t.state.SetAllowance(t.address, from, spender, new(big.Int).Sub(allowance, amount)); err != nil {
				return err
			}
		}
		return t.move(from, to, amount)
	})
}

// Mint creates amount new tokens for to. Only admins may mint.
func (t *Token) Mint(caller, to common.Address, amount *big.Int) error {
	return t.env.Atomic(func() error {
		if err := t.roles.Require(access.RoleAdmin, caller); err != nil {
			return err
		}
		return t.mint(to, amount)
	})
}

// Credit creates amount new tokens for to without a permission check. The
// runtime uses it to fund accounts with the native coin.
func (t *Token) Credit(to common.Address, amount *big.Int) error {
	return t.env.Atomic(func() error {
		return t.mint(to, amount)
	})
}

func (t *Token) mint(to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if !nativecommon.IsUint256(amount) {
		return ErrInvalidAmount
	}
	supply, err := t.state.TotalSupply(t.address)
	if err != nil {
		return err
	}
	supply.Add(supply, amount)
	if !nativecommon.IsUint256(supply) {
		return ErrInvalidAmount
	}
	balance, err := t.state.Balance(t.address, to)
	if err != nil {
		return err
	}
	if err := t.state.SetTotalSupply(t.address, supply); err != nil {
		return err
	}
	if err := t.state.SetBalance(t.address, to, balance.Add(balance, amount)); err != nil {
		return err
	}
	t.state.AddLog(events.TokenTransfer{Token: t.address, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

func (t *Token) move(from, to common.Address, amount *big.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	if !nativecommon.IsUint256(amount) {
		return ErrInvalidAmount
	}
	fromBalance, err := t.state.Balance(t.address, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := t.state.SetBalance(t.address, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	toBalance, err := t.state.Balance(t.address, to)
	if err != nil {
		return err
	}
	if err := t.state.SetBalance(t.address, to, toBalance.Add(toBalance, amount)); err != nil {
		return err
	}
	t.state.AddLog(events.TokenTransfer{Token: t.address, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}
