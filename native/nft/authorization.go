package nft

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"nftbridge/native/access"
	nativecommon "nftbridge/native/common"
)

// MintPrimaryType names the signed struct in the typed-data schema.
const MintPrimaryType = "Mint"

// SignatureLength is the size of an R || S || V signature.
const SignatureLength = crypto.SignatureLength

var mintTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	MintPrimaryType: {
		{Name: "to", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "extra", Type: "uint256"},
	},
}

// MintAuthorization is the off-chain signed permission to mint TokenID with
// Extra to To.
type MintAuthorization struct {
	To      common.Address
	TokenID *big.Int
	Extra   *big.Int
}

// Domain binds an authorization to one chain and one ledger contract.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

func uintValue(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

// TypedData builds the typed-data document for msg under domain. The result
// can be handed to any EIP-712 capable wallet.
func TypedData(domain Domain, msg MintAuthorization) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       mintTypes,
		PrimaryType: MintPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           uintValue(domain.ChainID),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"to":      msg.To.Hex(),
			"tokenId": uintValue(msg.TokenID),
			"extra":   uintValue(msg.Extra),
		},
	}
}

// Digest returns keccak256("\x19\x01" || domainSeparator || hashStruct(msg)).
func Digest(domain Domain, msg MintAuthorization) (common.Hash, error) {
	if !nativecommon.IsUint256(msg.TokenID) || (msg.Extra != nil && !nativecommon.IsUint256(msg.Extra)) {
		return common.Hash{}, ErrInvalidTokenID
	}
	hash, _, err := apitypes.TypedDataAndHash(TypedData(domain, msg))
	if err != nil {
		return common.Hash{}, fmt.Errorf("nft: hash typed data: %w", err)
	}
	return common.BytesToHash(hash), nil
}

// Sign produces a 65-byte R || S || V signature with V in {27, 28}.
func Sign(key *ecdsa.PrivateKey, domain Domain, msg MintAuthorization) ([]byte, error) {
	digest, err := Digest(domain, msg)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignatureFromVRS assembles the 65-byte form from its components.
func SignatureFromVRS(v byte, r, s common.Hash) []byte {
	sig := make([]byte, SignatureLength)
	copy(sig[:32], r.Bytes())
	copy(sig[32:64], s.Bytes())
	sig[64] = v
	return sig
}

// SplitSignature decomposes sig into (v, r, s).
func SplitSignature(sig []byte) (byte, common.Hash, common.Hash, error) {
	if len(sig) != SignatureLength {
		return 0, common.Hash{}, common.Hash{}, ErrMalformedSignature
	}
	return sig[64], common.BytesToHash(sig[:32]), common.BytesToHash(sig[32:64]), nil
}

// Recover returns the address that signed msg under domain. V may be given as
// 0/1 or 27/28. High-s signatures are rejected.
func Recover(domain Domain, msg MintAuthorization, sig []byte) (common.Address, error) {
	v, r, s, err := SplitSignature(sig)
	if err != nil {
		return common.Address{}, err
	}
	if v >= 27 {
		v -= 27
	}
	if !crypto.ValidateSignatureValues(v, r.Big(), s.Big(), true) {
		return common.Address{}, ErrMalformedSignature
	}
	digest, err := Digest(domain, msg)
	if err != nil {
		return common.Address{}, err
	}
	normalized := SignatureFromVRS(v, r, s)
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, ErrSignatureRecovery
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verifier checks mint authorizations against a ledger's minter set.
type Verifier struct {
	domain func() Domain
	roles  *access.Registry
}

// NewVerifier binds the verifier to a domain source and the registry whose
// Minter members may sign.
func NewVerifier(domain func() Domain, roles *access.Registry) *Verifier {
	return &Verifier{domain: domain, roles: roles}
}

// Domain returns the domain authorizations must be bound to.
func (v *Verifier) Domain() Domain { return v.domain() }

// Verify recovers the signer of msg and requires it to hold the Minter role.
// It returns the signer on success.
func (v *Verifier) Verify(msg MintAuthorization, sig []byte) (common.Address, error) {
	signer, err := Recover(v.domain(), msg, sig)
	if err != nil {
		return common.Address{}, err
	}
	if err := v.roles.Require(access.RoleMinter, signer); err != nil {
		return common.Address{}, err
	}
	return signer, nil
}
