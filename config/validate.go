package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/native/vesting"
	"nftbridge/observability/logging"
)

// MaxBlocksPerDay bounds the block rate so that the longest vesting schedule
// still fits in a uint64 block count.
const MaxBlocksPerDay = ^uint64(0) / vesting.MaxVestingDurationDays

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Validate checks the configuration for values a deployment would reject.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("ChainID must be positive")
	}
	switch c.Variant {
	case "child", "root":
	default:
		return fmt.Errorf("Variant must be child or root, got %q", c.Variant)
	}
	if c.Deployer != "" && !common.IsHexAddress(c.Deployer) {
		return fmt.Errorf("Deployer: invalid address %q", c.Deployer)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LogLevel: %w", err)
	}
	if _, err := parseUintAmount(c.NFT.MintFee); err != nil {
		return fmt.Errorf("nft.MintFee: %w", err)
	}
	for name, list := range map[string][]string{
		"roles.Minters":     c.Roles.Minters,
		"roles.Withdrawers": c.Roles.Withdrawers,
		"roles.Depositors":  c.Roles.Depositors,
		"roles.Predicates":  c.Roles.Predicates,
	} {
		if _, err := parseAddresses(list); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Variant == "root" {
		if len(c.Roles.Withdrawers) > 0 || len(c.Roles.Depositors) > 0 {
			return fmt.Errorf("roles: withdrawers and depositors only exist on the child variant")
		}
		return nil
	}
	if c.Reward.BlocksPerDay == 0 || c.Reward.BlocksPerDay > MaxBlocksPerDay {
		return fmt.Errorf("reward.BlocksPerDay out of range")
	}
	supply, err := parseUintAmount(c.Reward.Supply)
	if err != nil {
		return fmt.Errorf("reward.Supply: %w", err)
	}
	funding, err := parseUintAmount(c.Reward.Funding)
	if err != nil {
		return fmt.Errorf("reward.Funding: %w", err)
	}
	if funding.Cmp(supply) > 0 {
		return fmt.Errorf("reward.Funding exceeds reward.Supply")
	}
	if c.Reward.Params != nil {
		params, err := c.Reward.Params.vestingParams()
		if err != nil {
			return err
		}
		if err := params.Validate(); err != nil {
			return fmt.Errorf("reward.params: %w", err)
		}
	}
	return nil
}

func parseUintAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 || amount.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("amount %q out of uint256 range", value)
	}
	return amount, nil
}

func parseAddresses(values []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if !common.IsHexAddress(trimmed) {
			return nil, fmt.Errorf("invalid address %q", value)
		}
		out = append(out, common.HexToAddress(trimmed))
	}
	return out, nil
}
