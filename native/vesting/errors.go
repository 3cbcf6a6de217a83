package vesting

import nativecommon "nftbridge/native/common"

var (
	ErrNotCaller        = nativecommon.AccessDenied("vesting", "caller")
	ErrNoGrant          = nativecommon.NewError(nativecommon.ErrNotFound, "vesting: no grant for beneficiary")
	ErrEarnWindow       = nativecommon.NewError(nativecommon.ErrInvalidParameters, "vesting: earn start block after earn end block")
	ErrExtraWindow      = nativecommon.NewError(nativecommon.ErrInvalidParameters, "vesting: eligible extra start after eligible extra end")
	ErrDurationZero     = nativecommon.NewError(nativecommon.ErrInvalidParameters, "vesting: vesting duration must be at least one day")
	ErrDurationTooLong  = nativecommon.NewError(nativecommon.ErrInvalidParameters, "vesting: vesting duration exceeds 25 years")
	ErrInvalidAmount    = nativecommon.NewError(nativecommon.ErrInvalidParameters, "vesting: amount must be a uint256")
	ErrInvalidBlocksDay = nativecommon.NewError(nativecommon.ErrInvalidParameters, "vesting: blocks per day out of range")
	ErrTokenNotDeployed = nativecommon.NewError(nativecommon.ErrNotFound, "vesting: token contract not deployed")
	ErrEngineNotFound   = nativecommon.NewError(nativecommon.ErrNotFound, "vesting: engine not deployed")
	ErrEngineExists     = nativecommon.NewError(nativecommon.ErrAlreadyExists, "vesting: engine already deployed")
	ErrMathOverflow     = nativecommon.NewError(nativecommon.ErrInvalidParameters, "vesting: vested amount overflow")
)
