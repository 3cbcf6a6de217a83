package nft

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/native/access"
	nativecommon "nftbridge/native/common"
)

// RootLedger is the canonical side of the bridge. It has no public mint;
// tokens only appear when the predicate proves a withdrawal from the child
// ledger.
type RootLedger struct {
	*Ledger
}

// DeployRoot creates a root ledger at address. MintFee in cfg is ignored.
func DeployRoot(env nativecommon.Env, st ledgerState, address common.Address, cfg Config) (*RootLedger, error) {
	cfg.MintFee = nil
	l := &RootLedger{Ledger: newLedger(env, st, address, VariantRoot)}
	if err := l.deploy(cfg); err != nil {
		return nil, err
	}
	return l, nil
}

// OpenRoot attaches to a root ledger deployed earlier.
func OpenRoot(env nativecommon.Env, st ledgerState, address common.Address) (*RootLedger, error) {
	l := &RootLedger{Ledger: newLedger(env, st, address, VariantRoot)}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// LowLevelMint mints tokenID to to. Predicate only; no fee, signature or
// hook.
func (l *RootLedger) LowLevelMint(caller, to common.Address, tokenID *big.Int) error {
	return l.LowLevelMintWithMetadata(caller, to, tokenID, nil)
}

// LowLevelMintWithMetadata is LowLevelMint that also stores opaque metadata
// carried over from the child ledger.
func (l *RootLedger) LowLevelMintWithMetadata(caller, to common.Address, tokenID *big.Int, metadata []byte) error {
	return l.env.Atomic(func() error {
		if err := l.roles.Require(access.RolePredicate, caller); err != nil {
			return err
		}
		return l.mint(to, tokenID, nil, metadata)
	})
}

// TokenMetadata returns the metadata stored by LowLevelMintWithMetadata.
func (l *RootLedger) TokenMetadata(tokenID *big.Int) ([]byte, error) {
	token, err := l.token(tokenID)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), token.Metadata...), nil
}
