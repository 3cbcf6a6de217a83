package nft

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/events"
	"nftbridge/core/state"
	"nftbridge/native/access"
	nativecommon "nftbridge/native/common"
)

// Ledger variants.
const (
	VariantChild = "child"
	VariantRoot  = "root"
)

// Default typed-data domain of mint authorizations.
const (
	DefaultDomainName    = "BridgeNFT"
	DefaultDomainVersion = "1"
)

type ledgerState interface {
	NFTToken(ledger [20]byte, id *big.Int) (*state.NFTToken, bool, error)
	NFTTokenPut(ledger [20]byte, id *big.Int, token *state.NFTToken) error
	NFTTokenDelete(ledger [20]byte, id *big.Int) error
	NFTBalance(ledger [20]byte, owner [20]byte) (uint64, error)
	NFTBalancePut(ledger [20]byte, owner [20]byte, balance uint64) error
	NFTOperatorApproved(ledger [20]byte, owner [20]byte, operator [20]byte) (bool, error)
	NFTOperatorPut(ledger [20]byte, owner [20]byte, operator [20]byte, approved bool) error
	NFTWithdrawn(ledger [20]byte, id *big.Int) (bool, error)
	NFTWithdrawnPut(ledger [20]byte, id *big.Int, withdrawn bool) error
	NFTSettings(ledger [20]byte) (*state.NFTSettings, error)
	NFTSettingsPut(ledger [20]byte, settings *state.NFTSettings) error
	SetRole(scope [20]byte, role [32]byte, addr [20]byte) error
	RemoveRole(scope [20]byte, role [32]byte, addr [20]byte) error
	RoleMembers(scope [20]byte, role [32]byte) ([][20]byte, error)
	HasRole(scope [20]byte, role [32]byte, addr [20]byte) bool
	AddLog(evt events.Event)
}

// Config holds the construction parameters of a ledger.
type Config struct {
	DomainName    string
	DomainVersion string
	BaseTokenURI  string
	MintFee       *big.Int
	Admin         common.Address
}

// Ledger is the ERC-721 style token registry shared by both variants. It
// owns token existence, ownership, approvals and the base URI.
type Ledger struct {
	env           nativecommon.Env
	state         ledgerState
	address       common.Address
	variant       string
	domainName    string
	domainVersion string
	roles         *access.Registry
	hooks         *HookDispatcher
	verifier      *Verifier
}

func newLedger(env nativecommon.Env, st ledgerState, address common.Address, variant string) *Ledger {
	l := &Ledger{
		env:     env,
		state:   st,
		address: address,
		variant: variant,
		roles:   access.NewRegistry(env, st, address, "nft"),
		hooks:   newHookDispatcher(env, address),
	}
	l.verifier = NewVerifier(l.Domain, l.roles)
	return l
}

func (l *Ledger) deploy(cfg Config) error {
	if cfg.Admin == (common.Address{}) {
		return fmt.Errorf("%w: admin required", ErrZeroAddress)
	}
	fee := cfg.MintFee
	if fee == nil {
		fee = new(big.Int)
	}
	if !nativecommon.IsUint256(fee) {
		return ErrInvalidFee
	}
	l.domainName = cfg.DomainName
	if l.domainName == "" {
		l.domainName = DefaultDomainName
	}
	l.domainVersion = cfg.DomainVersion
	if l.domainVersion == "" {
		l.domainVersion = DefaultDomainVersion
	}
	return l.env.Atomic(func() error {
		existing, err := l.state.NFTSettings(l.address)
		if err != nil {
			return err
		}
		if existing.Variant != "" {
			return nativecommon.NewError(nativecommon.ErrAlreadyExists, "nft: ledger already deployed")
		}
		settings := &state.NFTSettings{
			Variant:       l.variant,
			DomainName:    l.domainName,
			DomainVersion: l.domainVersion,
			BaseTokenURI:  cfg.BaseTokenURI,
			MintFee:       new(big.Int).Set(fee),
		}
		if err := l.state.NFTSettingsPut(l.address, settings); err != nil {
			return err
		}
		return l.roles.Seed(access.RoleAdmin, cfg.Admin)
	})
}

func (l *Ledger) load() error {
	settings, err := l.state.NFTSettings(l.address)
	if err != nil {
		return err
	}
	if settings.Variant == "" {
		return ErrLedgerNotFound
	}
	if settings.Variant != l.variant {
		return fmt.Errorf("%w: deployed as %s", ErrVariantMismatch, settings.Variant)
	}
	l.domainName = settings.DomainName
	l.domainVersion = settings.DomainVersion
	return nil
}

// Address returns the ledger's contract address.
func (l *Ledger) Address() common.Address { return l.address }

// Variant reports whether the ledger is the child or the root side.
func (l *Ledger) Variant() string { return l.variant }

// Roles exposes the ledger's access registry.
func (l *Ledger) Roles() *access.Registry { return l.roles }

// Verifier exposes the mint authorization verifier bound to this ledger.
func (l *Ledger) Verifier() *Verifier { return l.verifier }

// Domain returns the typed-data domain mint authorizations must be signed
// under.
func (l *Ledger) Domain() Domain {
	return Domain{
		Name:              l.domainName,
		Version:           l.domainVersion,
		ChainID:           l.env.ChainID(),
		VerifyingContract: l.address,
	}
}

func (l *Ledger) settings() (*state.NFTSettings, error) {
	return l.state.NFTSettings(l.address)
}

func (l *Ledger) updateSettings(caller common.Address, mutate func(*state.NFTSettings) events.Event) error {
	return l.env.Atomic(func() error {
		if err := l.roles.Require(access.RoleAdmin, caller); err != nil {
			return err
		}
		settings, err := l.settings()
		if err != nil {
			return err
		}
		evt := mutate(settings)
		if err := l.state.NFTSettingsPut(l.address, settings); err != nil {
			return err
		}
		l.state.AddLog(evt)
		return nil
	})
}

// BaseTokenURI returns the prefix used by TokenURI.
func (l *Ledger) BaseTokenURI() (string, error) {
	settings, err := l.settings()
	if err != nil {
		return "", err
	}
	return settings.BaseTokenURI, nil
}

// SetBaseTokenURI replaces the URI prefix. Admin only.
func (l *Ledger) SetBaseTokenURI(caller common.Address, uri string) error {
	return l.updateSettings(caller, func(s *state.NFTSettings) events.Event {
		s.BaseTokenURI = uri
		return events.NFTBaseURISet{Ledger: l.address, URI: uri}
	})
}

// SetOnMint installs the mint hook receiver. The zero address disables it.
func (l *Ledger) SetOnMint(caller, receiver common.Address) error {
	return l.updateSettings(caller, func(s *state.NFTSettings) events.Event {
		s.OnMint = receiver
		return events.NFTHookSet{Ledger: l.address, Kind: HookMint, Receiver: receiver}
	})
}

// SetOnBurn installs the burn hook receiver. The zero address disables it.
func (l *Ledger) SetOnBurn(caller, receiver common.Address) error {
	return l.updateSettings(caller, func(s *state.NFTSettings) events.Event {
		s.OnBurn = receiver
		return events.NFTHookSet{Ledger: l.address, Kind: HookBurn, Receiver: receiver}
	})
}

// SetOnTransfer installs the transfer hook receiver. The zero address
// disables it.
func (l *Ledger) SetOnTransfer(caller, receiver common.Address) error {
	return l.updateSettings(caller, func(s *state.NFTSettings) events.Event {
		s.OnTransfer = receiver
		return events.NFTHookSet{Ledger: l.address, Kind: HookTransfer, Receiver: receiver}
	})
}

// OnMint returns the configured mint hook receiver.
func (l *Ledger) OnMint() (common.Address, error) {
	settings, err := l.settings()
	if err != nil {
		return common.Address{}, err
	}
	return settings.OnMint, nil
}

// OnBurn returns the configured burn hook receiver.
func (l *Ledger) OnBurn() (common.Address, error) {
	settings, err := l.settings()
	if err != nil {
		return common.Address{}, err
	}
	return settings.OnBurn, nil
}

// OnTransfer returns the configured transfer hook receiver.
func (l *Ledger) OnTransfer() (common.Address, error) {
	settings, err := l.settings()
	if err != nil {
		return common.Address{}, err
	}
	return settings.OnTransfer, nil
}

func (l *Ledger) token(id *big.Int) (*state.NFTToken, error) {
	if !nativecommon.IsUint256(id) {
		return nil, ErrInvalidTokenID
	}
	token, ok, err := l.state.NFTToken(l.address, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// Exists reports whether the token is alive on this ledger.
func (l *Ledger) Exists(id *big.Int) (bool, error) {
	if !nativecommon.IsUint256(id) {
		return false, ErrInvalidTokenID
	}
	_, ok, err := l.state.NFTToken(l.address, id)
	return ok, err
}

// OwnerOf returns the owner of a live token.
func (l *Ledger) OwnerOf(id *big.Int) (common.Address, error) {
	token, err := l.token(id)
	if err != nil {
		return common.Address{}, err
	}
	return token.Owner, nil
}

// ExtraOf returns the opaque tag supplied when the token was minted.
func (l *Ledger) ExtraOf(id *big.Int) (*big.Int, error) {
	token, err := l.token(id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(token.Extra), nil
}

// BalanceOf returns the number of live tokens held by owner.
func (l *Ledger) BalanceOf(owner common.Address) (uint64, error) {
	if owner == (common.Address{}) {
		return 0, ErrZeroAddress
	}
	return l.state.NFTBalance(l.address, owner)
}

// TokenURI returns the base URI followed by the decimal token id, or the empty
// string when no base URI is configured.
func (l *Ledger) TokenURI(id *big.Int) (string, error) {
	if _, err := l.token(id); err != nil {
		return "", err
	}
	base, err := l.BaseTokenURI()
	if err != nil {
		return "", err
	}
	if base == "" {
		return "", nil
	}
	return base + id.String(), nil
}

// GetApproved returns the single-token approval of a live token.
func (l *Ledger) GetApproved(id *big.Int) (common.Address, error) {
	token, err := l.token(id)
	if err != nil {
		return common.Address{}, err
	}
	return token.Approved, nil
}

// IsApprovedForAll reports whether operator manages every token of owner.
func (l *Ledger) IsApprovedForAll(owner, operator common.Address) (bool, error) {
	return l.state.NFTOperatorApproved(l.address, owner, operator)
}

// Approve lets to move a single token. The caller must own the token or be
// an approved operator of the owner.
func (l *Ledger) Approve(caller, to common.Address, id *big.Int) error {
	return l.env.Atomic(func() error {
		token, err := l.token(id)
		if err != nil {
			return err
		}
		owner := common.Address(token.Owner)
		if to == owner {
			return ErrApproveToOwner
		}
		if caller != owner {
			operator, err := l.IsApprovedForAll(owner, caller)
			if err != nil {
				return err
			}
			if !operator {
				return nativecommon.AccessDenied("nft", "owner or approved for all")
			}
		}
		token.Approved = to
		if err := l.state.NFTTokenPut(l.address, id, token); err != nil {
			return err
		}
		l.state.AddLog(events.NFTApproval{Ledger: l.address, Owner: owner, Approved: to, TokenID: new(big.Int).Set(id)})
		return nil
	})
}

// SetApprovalForAll grants or revokes operator control over every token of
// caller.
func (l *Ledger) SetApprovalForAll(caller, operator common.Address, approved bool) error {
	return l.env.Atomic(func() error {
		if operator == caller {
			return nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: approve to caller")
		}
		if err := l.state.NFTOperatorPut(l.address, caller, operator, approved); err != nil {
			return err
		}
		l.state.AddLog(events.NFTApprovalForAll{Ledger: l.address, Owner: caller, Operator: operator, Approved: approved})
		return nil
	})
}

func (l *Ledger) isApprovedOrOwner(spender common.Address, token *state.NFTToken) (bool, error) {
	owner := common.Address(token.Owner)
	if spender == owner || spender == common.Address(token.Approved) {
		return true, nil
	}
	return l.IsApprovedForAll(owner, spender)
}

// TransferFrom moves a token from from to to and then notifies the transfer
// hook.
func (l *Ledger) TransferFrom(caller, from, to common.Address, id *big.Int) error {
	return l.env.Atomic(func() error {
		if err := l.transfer(caller, from, to, id); err != nil {
			return err
		}
		return l.dispatchTransfer(from, to, id)
	})
}

// SafeTransferFrom is TransferFrom that additionally requires contract
// recipients to accept the token.
func (l *Ledger) SafeTransferFrom(caller, from, to common.Address, id *big.Int, data []byte) error {
	return l.env.Atomic(func() error {
		if err := l.transfer(caller, from, to, id); err != nil {
			return err
		}
		if err := l.checkReceiver(caller, from, to, id, data); err != nil {
			return err
		}
		return l.dispatchTransfer(from, to, id)
	})
}

func (l *Ledger) checkReceiver(operator, from, to common.Address, id *big.Int, data []byte) error {
	impl, ok := l.env.Resolve(to)
	if !ok {
		return nil
	}
	receiver, ok := impl.(TokenReceiver)
	if !ok {
		return ErrReceiverRejected
	}
	accepted, err := receiver.OnERC721Received(operator, from, new(big.Int).Set(id), data)
	if err != nil {
		return err
	}
	if !accepted {
		return ErrReceiverRejected
	}
	return nil
}

func (l *Ledger) transfer(caller, from, to common.Address, id *big.Int) error {
	token, err := l.token(id)
	if err != nil {
		return err
	}
	allowed, err := l.isApprovedOrOwner(caller, token)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotOwnerOrApproved
	}
	if common.Address(token.Owner) != from {
		return ErrTransferFromWrong
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if err := l.adjustBalance(from, -1); err != nil {
		return err
	}
	if err := l.adjustBalance(to, 1); err != nil {
		return err
	}
	token.Owner = to
	token.Approved = common.Address{}
	if err := l.state.NFTTokenPut(l.address, id, token); err != nil {
		return err
	}
	l.state.AddLog(events.NFTTransfer{Ledger: l.address, From: from, To: to, TokenID: new(big.Int).Set(id)})
	return nil
}

func (l *Ledger) dispatchTransfer(from, to common.Address, id *big.Int) error {
	receiver, err := l.OnTransfer()
	if err != nil {
		return err
	}
	return l.hooks.DispatchTransfer(receiver, from, to, id)
}

// Burn destroys a token. The caller must own it or be approved for it. The
// burn hook runs after the token is gone.
func (l *Ledger) Burn(caller common.Address, id *big.Int) error {
	return l.env.Atomic(func() error {
		token, err := l.token(id)
		if err != nil {
			return err
		}
		allowed, err := l.isApprovedOrOwner(caller, token)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrNotOwnerOrApproved
		}
		if _, err := l.burn(id); err != nil {
			return err
		}
		receiver, err := l.OnBurn()
		if err != nil {
			return err
		}
		return l.hooks.DispatchBurn(receiver, id)
	})
}

func (l *Ledger) adjustBalance(owner common.Address, delta int) error {
	balance, err := l.state.NFTBalance(l.address, owner)
	if err != nil {
		return err
	}
	switch {
	case delta > 0:
		balance++
	case balance == 0:
		return fmt.Errorf("nft: balance underflow for %s", owner.Hex())
	default:
		balance--
	}
	return l.state.NFTBalancePut(l.address, owner, balance)
}

// mint creates a live token without any permission, fee or hook handling.
func (l *Ledger) mint(to common.Address, id, extra *big.Int, metadata []byte) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if !nativecommon.IsUint256(id) {
		return ErrInvalidTokenID
	}
	if extra == nil {
		extra = new(big.Int)
	}
	if !nativecommon.IsUint256(extra) {
		return nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: extra must be a uint256")
	}
	_, exists, err := l.state.NFTToken(l.address, id)
	if err != nil {
		return err
	}
	if exists {
		return ErrTokenExists
	}
	if err := l.adjustBalance(to, 1); err != nil {
		return err
	}
	token := &state.NFTToken{Owner: to, Extra: new(big.Int).Set(extra)}
	if len(metadata) > 0 {
		token.Metadata = append([]byte(nil), metadata...)
	}
	if err := l.state.NFTTokenPut(l.address, id, token); err != nil {
		return err
	}
	l.state.AddLog(events.NFTTransfer{Ledger: l.address, To: to, TokenID: new(big.Int).Set(id)})
	return nil
}

// burn removes a live token and returns its last owner.
func (l *Ledger) burn(id *big.Int) (common.Address, error) {
	token, err := l.token(id)
	if err != nil {
		return common.Address{}, err
	}
	owner := common.Address(token.Owner)
	if err := l.adjustBalance(owner, -1); err != nil {
		return common.Address{}, err
	}
	if err := l.state.NFTTokenDelete(l.address, id); err != nil {
		return common.Address{}, err
	}
	l.state.AddLog(events.NFTTransfer{Ledger: l.address, From: owner, TokenID: new(big.Int).Set(id)})
	return owner, nil
}
