package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"nftbridge/cmd/internal/passphrase"
	"nftbridge/crypto"
	"nftbridge/native/access"
	"nftbridge/native/nft"
	"nftbridge/observability/logging"
)

func runKeygen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(keygenCommand, flag.ContinueOnError)
	keystorePath := fs.String("keystore", "", "Output path for the keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	light := fs.Bool("light", false, "Use light scrypt parameters (test keys only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keystorePath == "" {
		return errors.New("-keystore is required")
	}
	pass, err := passphrase.NewSource(*passEnv, passphrase.WithConfirmation()).Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	strength := crypto.StandardKeystore
	if *light {
		strength = crypto.LightKeystore
	}
	if err := crypto.SaveToKeystore(*keystorePath, key, pass, strength); err != nil {
		return fmt.Errorf("failed to write keystore: %w", err)
	}
	fmt.Fprintln(out, key.Address().Hex())
	return nil
}

func runRoleID(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(roleIDCommand, flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: nftctl role-id <name>")
	}
	role, err := access.ParseRole(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", role.String(), role.Hex())
	return nil
}

// mintFlags are the flags shared by sign-mint and verify-mint.
type mintFlags struct {
	chainID       *string
	contract      *string
	to            *string
	tokenID       *string
	extra         *string
	domainName    *string
	domainVersion *string
}

func registerMintFlags(fs *flag.FlagSet) *mintFlags {
	return &mintFlags{
		chainID:       fs.String("chain-id", "", "Chain id the authorization is bound to"),
		contract:      fs.String("contract", "", "Address of the child ledger"),
		to:            fs.String("to", "", "Recipient of the token"),
		tokenID:       fs.String("token-id", "", "Token id (decimal or 0x hex)"),
		extra:         fs.String("extra", "0", "Opaque extra value (decimal or 0x hex)"),
		domainName:    fs.String("domain-name", nft.DefaultDomainName, "Typed-data domain name"),
		domainVersion: fs.String("domain-version", nft.DefaultDomainVersion, "Typed-data domain version"),
	}
}

func parseUint256(name, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("-%s is required", name)
	}
	v, ok := math.ParseBig256(trimmed)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("-%s: invalid uint256 %q", name, value)
	}
	return v, nil
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("-%s: invalid address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func (f *mintFlags) parse() (nft.Domain, nft.MintAuthorization, error) {
	var (
		domain nft.Domain
		msg    nft.MintAuthorization
		err    error
	)
	if domain.ChainID, err = parseUint256("chain-id", *f.chainID); err != nil {
		return domain, msg, err
	}
	if domain.VerifyingContract, err = parseAddress("contract", *f.contract); err != nil {
		return domain, msg, err
	}
	domain.Name = *f.domainName
	domain.Version = *f.domainVersion
	if msg.To, err = parseAddress("to", *f.to); err != nil {
		return domain, msg, err
	}
	if msg.TokenID, err = parseUint256("token-id", *f.tokenID); err != nil {
		return domain, msg, err
	}
	if msg.Extra, err = parseUint256("extra", *f.extra); err != nil {
		return domain, msg, err
	}
	return domain, msg, nil
}

func runSignMint(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(signMintCommand, flag.ContinueOnError)
	keystorePath := fs.String("keystore", "", "Minter keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	mint := registerMintFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	domain, msg, err := mint.parse()
	if err != nil {
		return err
	}
	if *keystorePath == "" {
		return errors.New("-keystore is required")
	}
	pass, err := passphrase.NewSource(*passEnv, passphrase.WithPrompt("Minter keystore passphrase: ")).Get()
	if err != nil {
		return err
	}
	key, err := crypto.LoadFromKeystore(*keystorePath, pass)
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}
	sig, err := nft.Sign(key.PrivateKey, domain, msg)
	if err != nil {
		return err
	}
	v, r, s, err := nft.SplitSignature(sig)
	if err != nil {
		return err
	}
	logger := logging.SetupWithOptions(logging.Options{Service: "nftctl", Output: os.Stderr})
	logger.Info("mint authorization signed",
		"signer", key.Address().Hex(),
		"token_id", msg.TokenID.String(),
		logging.MaskField("signature", hexutil.Encode(sig)))
	fmt.Fprintf(out, "signer: %s\nsignature: %s\nv: %d\nr: %s\ns: %s\n", key.Address().Hex(), hexutil.Encode(sig), v, r.Hex(), s.Hex())
	return nil
}

func runVerifyMint(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(verifyMintCommand, flag.ContinueOnError)
	sigHex := fs.String("signature", "", "65-byte signature (0x hex)")
	mint := registerMintFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	domain, msg, err := mint.parse()
	if err != nil {
		return err
	}
	sig, err := hexutil.Decode(*sigHex)
	if err != nil {
		return fmt.Errorf("-signature: %w", err)
	}
	digest, err := nft.Digest(domain, msg)
	if err != nil {
		return err
	}
	signer, err := nft.Recover(domain, msg, sig)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "digest: %s\nsigner: %s\n", digest.Hex(), signer.Hex())
	return nil
}

func runDepositPayload(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(depositPayloadCommand, flag.ContinueOnError)
	tokenID := fs.String("token-id", "", "Token id (decimal or 0x hex)")
	decode := fs.String("decode", "", "Decode a payload instead of encoding one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *decode != "" {
		raw, err := hexutil.Decode(*decode)
		if err != nil {
			return fmt.Errorf("-decode: %w", err)
		}
		id, err := nft.DecodeDepositPayload(raw)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, id.String())
		return nil
	}
	id, err := parseUint256("token-id", *tokenID)
	if err != nil {
		return err
	}
	payload, err := nft.EncodeDepositPayload(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hexutil.Encode(payload))
	return nil
}
