package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core"
	"nftbridge/core/state"
	"nftbridge/native/nft"
	"nftbridge/native/vesting"
	telemetry "nftbridge/observability/otel"
)

func (p *RewardParams) vestingParams() (vesting.Params, error) {
	start, err := parseUintAmount(p.EligibleExtraStart)
	if err != nil {
		return vesting.Params{}, fmt.Errorf("reward.params.EligibleExtraStart: %w", err)
	}
	end, err := parseUintAmount(p.EligibleExtraEnd)
	if err != nil {
		return vesting.Params{}, fmt.Errorf("reward.params.EligibleExtraEnd: %w", err)
	}
	amount, err := parseUintAmount(p.RewardAmount)
	if err != nil {
		return vesting.Params{}, fmt.Errorf("reward.params.RewardAmount: %w", err)
	}
	return vesting.Params{
		EarnStartBlock:      p.EarnStartBlock,
		EarnEndBlock:        p.EarnEndBlock,
		EligibleExtraStart:  start,
		EligibleExtraEnd:    end,
		VestingDurationDays: p.VestingDurationDays,
		RewardAmount:        amount,
	}, nil
}

// DeployerAddress parses the configured deployer.
func (c *Config) DeployerAddress() (common.Address, error) {
	if !common.IsHexAddress(c.Deployer) {
		return common.Address{}, fmt.Errorf("Deployer: invalid address %q", c.Deployer)
	}
	return common.HexToAddress(c.Deployer), nil
}

// DeployConfig converts the configuration into the runtime deployment
// description consumed by core.Deploy.
func (c *Config) DeployConfig() (core.DeployConfig, error) {
	out := core.DeployConfig{
		Variant:      c.Variant,
		BlocksPerDay: c.Reward.BlocksPerDay,
		NFT: nft.Config{
			DomainName:    c.NFT.DomainName,
			DomainVersion: c.NFT.DomainVersion,
			BaseTokenURI:  c.NFT.BaseTokenURI,
		},
		RewardToken: state.TokenMetadata{
			Name:     c.Reward.TokenName,
			Symbol:   c.Reward.TokenSymbol,
			Decimals: c.Reward.TokenDecimals,
		},
	}
	var err error
	if out.NFT.MintFee, err = parseUintAmount(c.NFT.MintFee); err != nil {
		return out, fmt.Errorf("invalid nft.MintFee: %w", err)
	}
	if out.Minters, err = parseAddresses(c.Roles.Minters); err != nil {
		return out, fmt.Errorf("invalid roles.Minters: %w", err)
	}
	if out.Withdrawers, err = parseAddresses(c.Roles.Withdrawers); err != nil {
		return out, fmt.Errorf("invalid roles.Withdrawers: %w", err)
	}
	if out.Depositors, err = parseAddresses(c.Roles.Depositors); err != nil {
		return out, fmt.Errorf("invalid roles.Depositors: %w", err)
	}
	if out.Predicates, err = parseAddresses(c.Roles.Predicates); err != nil {
		return out, fmt.Errorf("invalid roles.Predicates: %w", err)
	}
	if out.RewardSupply, err = parseUintAmount(c.Reward.Supply); err != nil {
		return out, fmt.Errorf("invalid reward.Supply: %w", err)
	}
	if out.RewardFunding, err = parseUintAmount(c.Reward.Funding); err != nil {
		return out, fmt.Errorf("invalid reward.Funding: %w", err)
	}
	if c.Reward.Params != nil {
		params, err := c.Reward.Params.vestingParams()
		if err != nil {
			return out, err
		}
		out.RewardParams = &params
	}
	return out, nil
}

// OTel returns the exporter settings for observability/otel.Init.
func (t Telemetry) OTel(environment string) telemetry.Config {
	return telemetry.Config{
		ServiceName: t.ServiceName,
		Environment: environment,
		Endpoint:    t.Endpoint,
		Insecure:    t.Insecure,
		Headers:     telemetry.ParseHeaders(t.Headers),
		Traces:      t.Traces,
		Metrics:     t.Metrics,
	}
}

// Enabled reports whether any exporter is switched on.
func (t Telemetry) Enabled() bool { return t.Traces || t.Metrics }
