package core

import (
	"fmt"
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/state"
	"nftbridge/native/access"
	"nftbridge/native/bank"
	"nftbridge/native/nft"
	"nftbridge/native/vesting"
)

// DeployConfig describes the contracts Deploy installs.
type DeployConfig struct {
	Variant     string
	NFT         nft.Config
	Minters     []common.Address
	Withdrawers []common.Address
	Depositors  []common.Address
	Predicates  []common.Address

	RewardToken   state.TokenMetadata
	RewardSupply  *big.Int
	RewardFunding *big.Int
	RewardParams  *vesting.Params
	BlocksPerDay  uint64
}

// Deployment is the set of contracts living on one chain.
type Deployment struct {
	Chain       *Chain
	Deployer    common.Address
	NativeCoin  *bank.Token
	Child       *nft.ChildLedger
	Root        *nft.RootLedger
	RewardToken *bank.Token
	Vesting     *vesting.Engine
}

// Ledger returns the token ledger regardless of variant.
func (d *Deployment) Ledger() *nft.Ledger {
	if d.Child != nil {
		return d.Child.Ledger
	}
	return d.Root.Ledger
}

// Deploy installs the ledger contracts in order: the NFT ledger and its
// roles, then on the child side the reward token, its initial supply, the
// vesting engine and the mint hook pointing at it. The whole sequence is one
// atomic call.
func Deploy(c *Chain, deployer common.Address, cfg DeployConfig) (*Deployment, error) {
	if deployer == (common.Address{}) {
		return nil, fmt.Errorf("core: deployer required")
	}
	if cfg.Variant == "" {
		cfg.Variant = nft.VariantChild
	}
	if cfg.Variant != nft.VariantChild && cfg.Variant != nft.VariantRoot {
		return nil, fmt.Errorf("core: unknown ledger variant %q", cfg.Variant)
	}
	d := &Deployment{Chain: c, Deployer: deployer}
	registered := maps.Clone(c.contracts)
	err := c.Atomic(func() error {
		if _, exists, err := c.state.Deployment(); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("core: chain already has a deployment")
		}
		record := &state.Deployment{Variant: cfg.Variant, Deployer: deployer}
		ledgerCfg := cfg.NFT
		ledgerCfg.Admin = deployer

		ledgerAddr, err := c.Deploy(deployer)
		if err != nil {
			return err
		}
		record.Ledger = ledgerAddr
		if cfg.Variant == nft.VariantRoot {
			if d.Root, err = nft.DeployRoot(c, c.state, ledgerAddr, ledgerCfg); err != nil {
				return err
			}
			if err := c.Register(ledgerAddr, d.Root); err != nil {
				return err
			}
		} else {
			if d.NativeCoin, err = deployNativeCoin(c); err != nil {
				return err
			}
			record.NativeCoin = d.NativeCoin.Address()
			if d.Child, err = nft.DeployChild(c, c.state, ledgerAddr, d.NativeCoin, ledgerCfg); err != nil {
				return err
			}
			if err := c.Register(ledgerAddr, d.Child); err != nil {
				return err
			}
		}
		if err := grantRoles(d.Ledger().Roles(), deployer, cfg); err != nil {
			return err
		}
		if cfg.Variant == nft.VariantRoot {
			return c.state.SetDeployment(record)
		}

		tokenAddr, err := c.Deploy(deployer)
		if err != nil {
			return err
		}
		meta := cfg.RewardToken
		if meta.Symbol == "" {
			meta = state.TokenMetadata{Name: "Reward Token", Symbol: "RWD", Decimals: 18}
		}
		if d.RewardToken, err = bank.Deploy(c, c.state, tokenAddr, meta, deployer); err != nil {
			return err
		}
		if err := c.Register(tokenAddr, d.RewardToken); err != nil {
			return err
		}
		record.RewardToken = tokenAddr
		if cfg.RewardSupply != nil && cfg.RewardSupply.Sign() > 0 {
			if err := d.RewardToken.Mint(deployer, deployer, cfg.RewardSupply); err != nil {
				return err
			}
		}

		engineAddr, err := c.Deploy(deployer)
		if err != nil {
			return err
		}
		if d.Vesting, err = vesting.Deploy(c, c.state, engineAddr, deployer, tokenAddr, ledgerAddr, vesting.Options{BlocksPerDay: cfg.BlocksPerDay}); err != nil {
			return err
		}
		if err := c.Register(engineAddr, d.Vesting); err != nil {
			return err
		}
		record.Vesting = engineAddr
		if cfg.RewardFunding != nil && cfg.RewardFunding.Sign() > 0 {
			if err := d.RewardToken.Transfer(deployer, engineAddr, cfg.RewardFunding); err != nil {
				return err
			}
		}
		if cfg.RewardParams != nil {
			if err := d.Vesting.SetRewardParameters(deployer, *cfg.RewardParams); err != nil {
				return err
			}
		}
		if err := d.Child.SetOnMint(deployer, engineAddr); err != nil {
			return err
		}
		return c.state.SetDeployment(record)
	})
	if err != nil {
		c.contracts = registered
		return nil, err
	}
	return d, nil
}

func deployNativeCoin(c *Chain) (*bank.Token, error) {
	if impl, ok := c.Resolve(bank.NativeCoinAddress); ok {
		if token, ok := impl.(*bank.Token); ok {
			return token, nil
		}
	}
	token, err := bank.Deploy(c, c.state, bank.NativeCoinAddress, state.TokenMetadata{Name: "Native Coin", Symbol: "NATIVE", Decimals: 18}, common.Address{})
	if err != nil {
		return nil, err
	}
	if err := c.Register(bank.NativeCoinAddress, token); err != nil {
		return nil, err
	}
	return token, nil
}

func grantRoles(roles *access.Registry, admin common.Address, cfg DeployConfig) error {
	grants := []struct {
		role  access.Role
		addrs []common.Address
	}{
		{access.RoleMinter, cfg.Minters},
		{access.RoleWithdrawer, cfg.Withdrawers},
		{access.RoleDepositor, cfg.Depositors},
		{access.RolePredicate, cfg.Predicates},
	}
	for _, g := range grants {
		for _, addr := range g.addrs {
			if err := roles.Grant(admin, g.role, addr); err != nil {
				return err
			}
		}
	}
	return nil
}

// Open reattaches to the deployment recorded in the chain's state and
// registers its contracts.
func Open(c *Chain) (*Deployment, error) {
	record, ok, err := c.state.Deployment()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("core: no deployment recorded")
	}
	d := &Deployment{Chain: c, Deployer: record.Deployer}
	if record.Variant == nft.VariantRoot {
		if d.Root, err = nft.OpenRoot(c, c.state, record.Ledger); err != nil {
			return nil, err
		}
		return d, c.Register(record.Ledger, d.Root)
	}
	if d.NativeCoin, err = bank.Load(c, c.state, record.NativeCoin); err != nil {
		return nil, err
	}
	if d.Child, err = nft.OpenChild(c, c.state, record.Ledger, d.NativeCoin); err != nil {
		return nil, err
	}
	if d.RewardToken, err = bank.Load(c, c.state, record.RewardToken); err != nil {
		return nil, err
	}
	if d.Vesting, err = vesting.Open(c, c.state, record.Vesting); err != nil {
		return nil, err
	}
	for addr, impl := range map[common.Address]any{
		record.NativeCoin:  d.NativeCoin,
		record.Ledger:      d.Child,
		record.RewardToken: d.RewardToken,
		record.Vesting:     d.Vesting,
	} {
		if err := c.Register(addr, impl); err != nil {
			return nil, err
		}
	}
	return d, nil
}
