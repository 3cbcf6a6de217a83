package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"nftbridge/core/events"
	"nftbridge/core/state"
	"nftbridge/observability"
	"nftbridge/observability/logging"
	telemetry "nftbridge/observability/otel"
	"nftbridge/storage"
)

var (
	// ErrInvalidChainID is returned when a chain is opened without a positive
	// chain identifier.
	ErrInvalidChainID = errors.New("core: chain id must be positive")
	// ErrAddressInUse is returned when two contracts are registered at the
	// same address.
	ErrAddressInUse = errors.New("core: address already has a contract")
)

// ChainOptions configure NewChain.
type ChainOptions struct {
	ChainID *big.Int
	Logger  *slog.Logger
	Emitter events.Emitter
	Metrics *observability.LedgerMetrics
}

// Chain is the execution runtime shared by every ledger contract on one chain.
// It owns the journaled state, the block height and the contract directory.
// Calls are sequential: Execute serialises top-level calls, and contracts
// invoked directly must not be used from more than one goroutine at a time.
type Chain struct {
	mu        sync.Mutex
	chainID   *big.Int
	state     *state.Manager
	height    uint64
	depth     int
	contracts map[common.Address]any

	emitter events.Emitter
	logger  *slog.Logger
	metrics *observability.LedgerMetrics
	tracer  trace.Tracer
	calls   metric.Int64Counter
}

// NewChain opens a chain runtime over db, restoring the persisted block
// height.
func NewChain(db storage.Database, opts ChainOptions) (*Chain, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if opts.ChainID == nil || opts.ChainID.Sign() <= 0 {
		return nil, ErrInvalidChainID
	}
	c := &Chain{
		chainID:   new(big.Int).Set(opts.ChainID),
		state:     state.NewManager(db),
		contracts: make(map[common.Address]any),
		emitter:   opts.Emitter,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		tracer:    telemetry.Tracer(),
	}
	if c.emitter == nil {
		c.emitter = events.NoopEmitter{}
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	calls, err := telemetry.Meter().Int64Counter("nftbridge.ledger.calls",
		metric.WithDescription("Top-level ledger calls by operation and outcome."))
	if err != nil {
		return nil, fmt.Errorf("core: create call counter: %w", err)
	}
	c.calls = calls
	height, err := c.state.BlockHeight()
	if err != nil {
		return nil, fmt.Errorf("core: load height: %w", err)
	}
	c.height = height
	return c, nil
}

// ChainID returns a copy of the chain identifier.
func (c *Chain) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// BlockNumber returns the current block height.
func (c *Chain) BlockNumber() uint64 { return c.height }

// State exposes the journaled state manager shared by all contracts.
func (c *Chain) State() *state.Manager { return c.state }

// Logger returns the chain logger.
func (c *Chain) Logger() *slog.Logger { return c.logger }

// Mine advances the block height by n.
func (c *Chain) Mine(n uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setHeight(c.height + n)
}

// SetBlockNumber moves the chain to height. Heights never decrease.
func (c *Chain) SetBlockNumber(height uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if height < c.height {
		return fmt.Errorf("core: height %d is below current height %d", height, c.height)
	}
	return c.setHeight(height)
}

func (c *Chain) setHeight(height uint64) error {
	prev := c.height
	err := c.Atomic(func() error {
		c.height = height
		return c.state.SetBlockHeight(height)
	})
	if err != nil {
		c.height = prev
	}
	return err
}

// Atomic runs fn inside a state snapshot. An error reverts every write and
// queued event recorded since the snapshot. When the outermost call succeeds
// the pending state is committed and its events are emitted in order.
func (c *Chain) Atomic(fn func() error) error {
	snap := c.state.Snapshot()
	if err := c.run(snap, fn); err != nil {
		c.state.RevertToSnapshot(snap)
		return err
	}
	if c.depth > 0 {
		return nil
	}
	logs, err := c.state.Commit()
	if err != nil {
		c.state.Discard()
		return err
	}
	for _, evt := range logs {
		c.emitter.Emit(evt)
		c.metrics.RecordEvent(evt.EventType())
	}
	if len(logs) > 0 {
		c.logger.Debug("state committed", "events", len(logs), "block", c.height)
	}
	return nil
}

// run invokes fn one level deeper. A panic reverts to snap and restores the
// depth before propagating, so later calls still commit.
func (c *Chain) run(snap state.Snapshot, fn func() error) error {
	c.depth++
	defer func() {
		c.depth--
		if r := recover(); r != nil {
			c.state.RevertToSnapshot(snap)
			panic(r)
		}
	}()
	return fn()
}

// Execute runs fn as a named top-level call. The call is traced, logged and
// metered; on failure every effect of fn is reverted.
func (c *Chain) Execute(ctx context.Context, operation string, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	callID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, operation, trace.WithAttributes(
		attribute.String("call_id", callID),
		attribute.String("block", strconv.FormatUint(c.height, 10)),
	))
	defer span.End()

	started := time.Now()
	err := c.Atomic(fn)
	c.metrics.ObserveCall(operation, err, time.Since(started))

	outcome := "committed"
	if err != nil {
		outcome = "reverted"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Info("call reverted", "operation", operation, "call_id", callID, "error", err)
	}
	c.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	return err
}

// Deploy reserves the next contract address of deployer, derived the same
// way as CREATE addresses.
func (c *Chain) Deploy(deployer common.Address) (common.Address, error) {
	var addr common.Address
	err := c.Atomic(func() error {
		nonce, err := c.state.AccountNonce(deployer)
		if err != nil {
			return err
		}
		addr = crypto.CreateAddress(deployer, nonce)
		return c.state.SetAccountNonce(deployer, nonce+1)
	})
	return addr, err
}

// Register installs a contract implementation at addr.
func (c *Chain) Register(addr common.Address, impl any) error {
	if impl == nil {
		return fmt.Errorf("core: contract implementation required")
	}
	if _, exists := c.contracts[addr]; exists {
		return fmt.Errorf("%w: %s", ErrAddressInUse, addr.Hex())
	}
	c.contracts[addr] = impl
	return nil
}

// Resolve returns the contract registered at addr.
func (c *Chain) Resolve(addr common.Address) (any, bool) {
	impl, ok := c.contracts[addr]
	return impl, ok
}
