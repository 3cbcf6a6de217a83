package access

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role is the 32-byte on-ledger identifier of a capability.
type Role [32]byte

// RoleID hashes a role name into its identifier. The admin role is the zero
// identifier regardless of name.
func RoleID(name string) Role {
	return Role(crypto.Keccak256Hash([]byte(name)))
}

var (
	// RoleAdmin may grant and revoke every role, itself included.
	RoleAdmin = Role{}
	// RoleMinter signs mint authorizations and mints without paying the fee.
	RoleMinter = RoleID("MINTER_ROLE")
	// RoleWithdrawer drains collected mint fees.
	RoleWithdrawer = RoleID("WITHDRAW_ROLE")
	// RoleDepositor finalises bridge deposits on the child ledger.
	RoleDepositor = RoleID("DEPOSITOR_ROLE")
	// RolePredicate finalises bridge mints on the root ledger.
	RolePredicate = RoleID("PREDICATE_ROLE")
)

var roleNames = map[Role]string{
	RoleAdmin:      "admin",
	RoleMinter:     "minter",
	RoleWithdrawer: "withdraw",
	RoleDepositor:  "depositor",
	RolePredicate:  "predicate",
}

var roleAliases = map[string]Role{
	"admin":              RoleAdmin,
	"default_admin_role": RoleAdmin,
	"minter":             RoleMinter,
	"minter_role":        RoleMinter,
	"withdraw":           RoleWithdrawer,
	"withdrawer":         RoleWithdrawer,
	"withdraw_role":      RoleWithdrawer,
	"depositor":          RoleDepositor,
	"depositor_role":     RoleDepositor,
	"predicate":          RolePredicate,
	"predicate_role":     RolePredicate,
}

// String returns the short role name for known roles and the hex identifier
// otherwise.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return r.Hex()
}

// Hex returns the 0x-prefixed identifier.
func (r Role) Hex() string {
	return common.Hash(r).Hex()
}

// ParseRole accepts a short name ("minter"), the canonical constant name
// ("MINTER_ROLE") or a 32-byte hex identifier.
func ParseRole(value string) (Role, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Role{}, fmt.Errorf("access: role must not be empty")
	}
	if role, ok := roleAliases[strings.ToLower(trimmed)]; ok {
		return role, nil
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		raw := common.FromHex(trimmed)
		if len(raw) != 32 {
			return Role{}, fmt.Errorf("access: role id must be 32 bytes, got %d", len(raw))
		}
		return Role(common.BytesToHash(raw)), nil
	}
	return Role{}, fmt.Errorf("access: unknown role %q", value)
}
