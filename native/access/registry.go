package access

import (
	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/events"
	nativecommon "nftbridge/native/common"
)

type registryState interface {
	SetRole(scope [20]byte, role [32]byte, addr [20]byte) error
	RemoveRole(scope [20]byte, role [32]byte, addr [20]byte) error
	RoleMembers(scope [20]byte, role [32]byte) ([][20]byte, error)
	HasRole(scope [20]byte, role [32]byte, addr [20]byte) bool
	AddLog(evt events.Event)
}

// Registry manages role membership for a single contract. Membership is
// scoped by the contract address so roles on one ledger never leak into
// another.
type Registry struct {
	env    nativecommon.Env
	state  registryState
	scope  common.Address
	module string
}

// NewRegistry binds a registry to the contract at scope. Module prefixes the
// access denied messages produced by Require.
func NewRegistry(env nativecommon.Env, state registryState, scope common.Address, module string) *Registry {
	return &Registry{env: env, state: state, scope: scope, module: module}
}

// Scope returns the contract address the registry governs.
func (r *Registry) Scope() common.Address { return r.scope }

// Seed assigns a role without a permission check. It is used while a contract
// is being constructed to install the initial admin.
func (r *Registry) Seed(role Role, addr common.Address) error {
	return r.env.Atomic(func() error {
		return r.add(common.Address{}, role, addr)
	})
}

// Grant assigns role to addr. Only admins may grant.
func (r *Registry) Grant(caller common.Address, role Role, addr common.Address) error {
	return r.env.Atomic(func() error {
		if err := r.Require(RoleAdmin, caller); err != nil {
			return err
		}
		return r.add(caller, role, addr)
	})
}

// Revoke removes role from addr. Only admins may revoke, and an admin may
// revoke its own admin role.
func (r *Registry) Revoke(caller common.Address, role Role, addr common.Address) error {
	return r.env.Atomic(func() error {
		if err := r.Require(RoleAdmin, caller); err != nil {
			return err
		}
		return r.remove(caller, role, addr)
	})
}

// Renounce drops a role held by the caller.
func (r *Registry) Renounce(caller common.Address, role Role) error {
	return r.env.Atomic(func() error {
		return r.remove(caller, role, caller)
	})
}

// Has reports whether addr holds role.
func (r *Registry) Has(role Role, addr common.Address) bool {
	return r.state.HasRole(r.scope, role, addr)
}

// Require fails with an AccessDeniedError when addr lacks role.
func (r *Registry) Require(role Role, addr common.Address) error {
	if r.Has(role, addr) {
		return nil
	}
	return nativecommon.AccessDenied(r.module, role.String())
}

// Members lists every holder of role in ascending address order.
func (r *Registry) Members(role Role) ([]common.Address, error) {
	raw, err := r.state.RoleMembers(r.scope, role)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, len(raw))
	for i, member := range raw {
		out[i] = common.Address(member)
	}
	return out, nil
}

func (r *Registry) add(sender common.Address, role Role, addr common.Address) error {
	if r.Has(role, addr) {
		return nil
	}
	if err := r.state.SetRole(r.scope, role, addr); err != nil {
		return err
	}
	r.state.AddLog(events.RoleChanged{Contract: r.scope, Role: role.String(), Account: addr, Sender: sender, Granted: true})
	return nil
}

func (r *Registry) remove(sender common.Address, role Role, addr common.Address) error {
	if !r.Has(role, addr) {
		return nil
	}
	if err := r.state.RemoveRole(r.scope, role, addr); err != nil {
		return err
	}
	r.state.AddLog(events.RoleChanged{Contract: r.scope, Role: role.String(), Account: addr, Sender: sender})
	return nil
}
