package nft

import nativecommon "nftbridge/native/common"

var (
	ErrTokenExists        = nativecommon.NewError(nativecommon.ErrAlreadyExists, "nft: token already minted")
	ErrExistsOnRootChain  = nativecommon.NewError(nativecommon.ErrAlreadyExists, "nft: token exists on root chain")
	ErrTokenNotFound      = nativecommon.NewError(nativecommon.ErrNotFound, "nft: nonexistent token")
	ErrFeeMismatch        = nativecommon.NewError(nativecommon.ErrFeeMismatch, "nft: incorrect mint fee provided")
	ErrMalformedSignature = nativecommon.NewError(nativecommon.ErrInvalidSignature, "nft: malformed signature")
	ErrSignatureRecovery  = nativecommon.NewError(nativecommon.ErrInvalidSignature, "nft: signer recovery failed")
	ErrInvalidPayload     = nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: deposit payload must be one abi encoded uint256")
	ErrZeroAddress        = nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: zero address")
	ErrInvalidTokenID     = nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: token id must be a uint256")
	ErrInvalidFee         = nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: mint fee must be a uint256")
	ErrNotOwner           = nativecommon.AccessDenied("nft", "owner")
	ErrNotOwnerOrApproved = nativecommon.AccessDenied("nft", "owner or approved")
	ErrTransferFromWrong  = nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: transfer from incorrect owner")
	ErrApproveToOwner     = nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: approval to current owner")
	ErrHookUnavailable    = nativecommon.NewError(nativecommon.ErrNotFound, "nft: hook receiver does not implement the hook")
	ErrReceiverRejected   = nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: transfer to non ERC721Receiver implementer")
	ErrLedgerNotFound     = nativecommon.NewError(nativecommon.ErrNotFound, "nft: ledger not deployed")
	ErrVariantMismatch    = nativecommon.NewError(nativecommon.ErrInvalidParameters, "nft: ledger variant mismatch")
)
