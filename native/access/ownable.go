package access

import (
	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/events"
	nativecommon "nftbridge/native/common"
)

type ownableState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	AddLog(evt events.Event)
}

var errOwnerZero = nativecommon.NewError(nativecommon.ErrInvalidParameters, "access: new owner is the zero address")

// Ownable gates a contract behind a single owner address.
type Ownable struct {
	env      nativecommon.Env
	state    ownableState
	contract common.Address
	module   string
}

// NewOwnable binds the owner record of contract.
func NewOwnable(env nativecommon.Env, state ownableState, contract common.Address, module string) *Ownable {
	return &Ownable{env: env, state: state, contract: contract, module: module}
}

func (o *Ownable) key() []byte {
	return append([]byte("access/owner/"), o.contract.Bytes()...)
}

// Owner returns the current owner, or the zero address if none was set.
func (o *Ownable) Owner() (common.Address, error) {
	var owner common.Address
	if _, err := o.state.KVGet(o.key(), &owner); err != nil {
		return common.Address{}, err
	}
	return owner, nil
}

// RequireOwner fails with an AccessDeniedError unless caller is the owner.
func (o *Ownable) RequireOwner(caller common.Address) error {
	owner, err := o.Owner()
	if err != nil {
		return err
	}
	if owner == (common.Address{}) || owner != caller {
		return nativecommon.AccessDenied(o.module, "owner")
	}
	return nil
}

// Init installs the first owner.
func (o *Ownable) Init(owner common.Address) error {
	return o.env.Atomic(func() error {
		return o.set(common.Address{}, owner)
	})
}

// TransferOwnership hands the contract to next. Only the owner may call it.
func (o *Ownable) TransferOwnership(caller, next common.Address) error {
	return o.env.Atomic(func() error {
		if err := o.RequireOwner(caller); err != nil {
			return err
		}
		return o.set(caller, next)
	})
}

func (o *Ownable) set(previous, next common.Address) error {
	if next == (common.Address{}) {
		return errOwnerZero
	}
	if err := o.state.KVPut(o.key(), next); err != nil {
		return err
	}
	o.state.AddLog(events.OwnershipTransferred{Contract: o.contract, Previous: previous, Next: next})
	return nil
}
