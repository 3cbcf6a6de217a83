package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"

	"nftbridge/config"
	"nftbridge/core"
	"nftbridge/observability"
	"nftbridge/observability/logging"
	telemetry "nftbridge/observability/otel"
	"nftbridge/storage"
)

// runtime is an opened chain together with the services started for it.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *storage.LevelDB
	chain  *core.Chain
	stop   func(context.Context) error
}

func openRuntime(ctx context.Context, configPath string, stderr io.Writer) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.SetupWithOptions(logging.Options{
		Service: "nftctl",
		Env:     cfg.Environment,
		Level:   level,
		Output:  stderr,
	})

	stop := func(context.Context) error { return nil }
	if cfg.Telemetry.Enabled() {
		if stop, err = telemetry.Init(ctx, cfg.Telemetry.OTel(cfg.Environment)); err != nil {
			return nil, fmt.Errorf("start telemetry: %w", err)
		}
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		_ = stop(ctx)
		return nil, fmt.Errorf("open data dir %s: %w", cfg.DataDir, err)
	}
	chain, err := core.NewChain(db, core.ChainOptions{
		ChainID: new(big.Int).SetUint64(cfg.ChainID),
		Logger:  logger,
		Metrics: observability.Ledger(),
	})
	if err != nil {
		db.Close()
		_ = stop(ctx)
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, db: db, chain: chain, stop: stop}, nil
}

func (r *runtime) Close(ctx context.Context) {
	r.db.Close()
	if err := r.stop(ctx); err != nil {
		r.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

type deploymentSummary struct {
	ChainID     uint64 `yaml:"chain_id"`
	Variant     string `yaml:"variant"`
	Block       uint64 `yaml:"block"`
	Deployer    string `yaml:"deployer"`
	Ledger      string `yaml:"ledger"`
	NativeCoin  string `yaml:"native_coin,omitempty"`
	RewardToken string `yaml:"reward_token,omitempty"`
	Vesting     string `yaml:"vesting,omitempty"`
	MintFee     string `yaml:"mint_fee,omitempty"`
	BaseURI     string `yaml:"base_token_uri"`
}

func summarize(cfg *config.Config, c *core.Chain, d *core.Deployment) (deploymentSummary, error) {
	ledger := d.Ledger()
	out := deploymentSummary{
		ChainID:  cfg.ChainID,
		Variant:  ledger.Variant(),
		Block:    c.BlockNumber(),
		Deployer: d.Deployer.Hex(),
		Ledger:   ledger.Address().Hex(),
	}
	uri, err := ledger.BaseTokenURI()
	if err != nil {
		return out, err
	}
	out.BaseURI = uri
	if d.Child != nil {
		fee, err := d.Child.MintFee()
		if err != nil {
			return out, err
		}
		out.MintFee = fee.String()
		out.NativeCoin = d.NativeCoin.Address().Hex()
		out.RewardToken = d.RewardToken.Address().Hex()
		out.Vesting = d.Vesting.Address().Hex()
	}
	return out, nil
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func runDeploy(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(deployCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the chain config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := openRuntime(ctx, *configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	deployer, err := rt.cfg.DeployerAddress()
	if err != nil {
		return err
	}
	deployCfg, err := rt.cfg.DeployConfig()
	if err != nil {
		return err
	}
	var d *core.Deployment
	err = rt.chain.Execute(ctx, "deploy", func() error {
		var err error
		d, err = core.Deploy(rt.chain, deployer, deployCfg)
		return err
	})
	if err != nil {
		return err
	}
	summary, err := summarize(rt.cfg, rt.chain, d)
	if err != nil {
		return err
	}
	rt.logger.Info("ledger deployed", "ledger", summary.Ledger, "block", summary.Block)
	return writeYAML(out, summary)
}

func runInspect(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(inspectCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the chain config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := openRuntime(ctx, *configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	d, err := core.Open(rt.chain)
	if err != nil {
		return err
	}
	summary, err := summarize(rt.cfg, rt.chain, d)
	if err != nil {
		return err
	}
	return writeYAML(out, summary)
}

type grantExport struct {
	Beneficiary    string `yaml:"beneficiary"`
	Amount         string `yaml:"amount"`
	StartBlock     uint64 `yaml:"start_block"`
	DurationBlocks uint64 `yaml:"duration_blocks"`
	Claimed        string `yaml:"claimed"`
	Vested         string `yaml:"vested"`
}

type grantsReport struct {
	Engine string        `yaml:"engine"`
	Block  uint64        `yaml:"block"`
	Grants []grantExport `yaml:"grants"`
}

func runGrants(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(grantsCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the chain config file")
	outPath := fs.String("out", "", "Write the report to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := openRuntime(ctx, *configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	d, err := core.Open(rt.chain)
	if err != nil {
		return err
	}
	if d.Vesting == nil {
		return errors.New("root ledgers have no vesting engine")
	}
	records, err := d.Vesting.Grants()
	if err != nil {
		return err
	}
	block := rt.chain.BlockNumber()
	report := grantsReport{
		Engine: d.Vesting.Address().Hex(),
		Block:  block,
		Grants: make([]grantExport, 0, len(records)),
	}
	for _, rec := range records {
		vested, err := rec.Grant.Vested(block)
		if err != nil {
			return err
		}
		report.Grants = append(report.Grants, grantExport{
			Beneficiary:    rec.Beneficiary.Hex(),
			Amount:         rec.Grant.Amount.String(),
			StartBlock:     rec.Grant.StartBlock,
			DurationBlocks: rec.Grant.DurationBlocks,
			Claimed:        rec.Grant.Claimed.String(),
			Vested:         vested.String(),
		})
	}
	if *outPath == "" {
		return writeYAML(out, report)
	}
	f, err := os.OpenFile(*outPath, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeYAML(f, report)
}
