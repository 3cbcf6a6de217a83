package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config describes one chain and the ledger deployment living on it.
type Config struct {
	ChainID            uint64    `toml:"ChainID" yaml:"chain_id"`
	DataDir            string    `toml:"DataDir" yaml:"data_dir"`
	Variant            string    `toml:"Variant" yaml:"variant"`
	Deployer           string    `toml:"Deployer" yaml:"deployer"`
	MinterKeystorePath string    `toml:"MinterKeystorePath" yaml:"minter_keystore_path"`
	LogLevel           string    `toml:"LogLevel" yaml:"log_level"`
	Environment        string    `toml:"Environment" yaml:"environment"`
	NFT                NFT       `toml:"nft" yaml:"nft"`
	Roles              Roles     `toml:"roles" yaml:"roles"`
	Reward             Reward    `toml:"reward" yaml:"reward"`
	Telemetry          Telemetry `toml:"telemetry" yaml:"telemetry"`
}

// NFT configures the token ledger.
type NFT struct {
	DomainName    string `toml:"DomainName" yaml:"domain_name"`
	DomainVersion string `toml:"DomainVersion" yaml:"domain_version"`
	BaseTokenURI  string `toml:"BaseTokenURI" yaml:"base_token_uri"`
	// MintFee is a decimal amount of the native coin. Ignored on the root
	// variant.
	MintFee string `toml:"MintFee" yaml:"mint_fee"`
}

// Roles lists the hex addresses granted each ledger role at deployment.
type Roles struct {
	Minters     []string `toml:"Minters" yaml:"minters"`
	Withdrawers []string `toml:"Withdrawers" yaml:"withdrawers"`
	Depositors  []string `toml:"Depositors" yaml:"depositors"`
	Predicates  []string `toml:"Predicates" yaml:"predicates"`
}

// Reward configures the reward token and vesting engine of a child chain.
type Reward struct {
	TokenName     string        `toml:"TokenName" yaml:"token_name"`
	TokenSymbol   string        `toml:"TokenSymbol" yaml:"token_symbol"`
	TokenDecimals uint8         `toml:"TokenDecimals" yaml:"token_decimals"`
	Supply        string        `toml:"Supply" yaml:"supply"`
	Funding       string        `toml:"Funding" yaml:"funding"`
	BlocksPerDay  uint64        `toml:"BlocksPerDay" yaml:"blocks_per_day"`
	Params        *RewardParams `toml:"params,omitempty" yaml:"params,omitempty"`
}

// RewardParams are the initial vesting engine parameters. Amounts are
// decimal strings.
type RewardParams struct {
	EarnStartBlock      uint64 `toml:"EarnStartBlock" yaml:"earn_start_block"`
	EarnEndBlock        uint64 `toml:"EarnEndBlock" yaml:"earn_end_block"`
	EligibleExtraStart  string `toml:"EligibleExtraStart" yaml:"eligible_extra_start"`
	EligibleExtraEnd    string `toml:"EligibleExtraEnd" yaml:"eligible_extra_end"`
	VestingDurationDays uint64 `toml:"VestingDurationDays" yaml:"vesting_duration_days"`
	RewardAmount        string `toml:"RewardAmount" yaml:"reward_amount"`
}

// Telemetry selects the OTLP exporters started by the CLI.
type Telemetry struct {
	ServiceName string `toml:"ServiceName" yaml:"service_name"`
	Endpoint    string `toml:"Endpoint" yaml:"endpoint"`
	Insecure    bool   `toml:"Insecure" yaml:"insecure"`
	Headers     string `toml:"Headers" yaml:"headers"`
	Traces      bool   `toml:"Traces" yaml:"traces"`
	Metrics     bool   `toml:"Metrics" yaml:"metrics"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads the configuration at path, decoding YAML for .yaml/.yml files and
// TOML otherwise. A missing file is created with defaults. The result has
// defaults applied and is validated.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if isYAML(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config %s: unknown field %s", path, undecoded[0].String())
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration of a local child chain.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.ChainID == 0 {
		c.ChainID = 31337
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./nftbridge-data"
	}
	if strings.TrimSpace(c.Variant) == "" {
		c.Variant = "child"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Environment == "" {
		c.Environment = "local"
	}
	if c.NFT.DomainName == "" {
		c.NFT.DomainName = "BridgeNFT"
	}
	if c.NFT.DomainVersion == "" {
		c.NFT.DomainVersion = "1"
	}
	if c.NFT.MintFee == "" {
		c.NFT.MintFee = "0"
	}
	if c.Reward.TokenSymbol == "" {
		c.Reward.TokenName = "Reward Token"
		c.Reward.TokenSymbol = "RWD"
		c.Reward.TokenDecimals = 18
	}
	if c.Reward.Supply == "" {
		c.Reward.Supply = "0"
	}
	if c.Reward.Funding == "" {
		c.Reward.Funding = "0"
	}
	if c.Reward.BlocksPerDay == 0 {
		c.Reward.BlocksPerDay = 43200
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "nftbridge"
	}
	if c.Roles.Minters == nil {
		c.Roles.Minters = []string{}
	}
	if c.Roles.Withdrawers == nil {
		c.Roles.Withdrawers = []string{}
	}
	if c.Roles.Depositors == nil {
		c.Roles.Depositors = []string{}
	}
	if c.Roles.Predicates == nil {
		c.Roles.Predicates = []string{}
	}
}

// createDefault writes the default configuration to path.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path in the format selected by its extension.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}
