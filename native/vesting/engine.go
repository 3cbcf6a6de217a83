package vesting

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftbridge/core/events"
	"nftbridge/core/state"
	"nftbridge/native/access"
	nativecommon "nftbridge/native/common"
	"nftbridge/native/nft"
)

type engineState interface {
	VestingGrant(engine [20]byte, beneficiary [20]byte) (*state.VestingGrant, bool, error)
	VestingGrantPut(engine [20]byte, beneficiary [20]byte, grant *state.VestingGrant) error
	VestingBeneficiaries(engine [20]byte) ([][20]byte, error)
	VestingParams(engine [20]byte) (*state.VestingParams, error)
	VestingParamsPut(engine [20]byte, params *state.VestingParams) error
	VestingConfig(engine [20]byte) (*state.VestingConfig, bool, error)
	VestingConfigPut(engine [20]byte, cfg *state.VestingConfig) error
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	AddLog(evt events.Event)
}

// Token is the fungible balance store an engine pays out of.
type Token interface {
	BalanceOf(account common.Address) (*big.Int, error)
	Transfer(from, to common.Address, amount *big.Int) error
}

type approver interface {
	Approve(owner, spender common.Address, amount *big.Int) error
}

// Options tune a new engine.
type Options struct {
	BlocksPerDay uint64
}

// Engine issues one-time reward grants on qualifying mints and releases them
// linearly over a block-based schedule.
type Engine struct {
	env     nativecommon.Env
	state   engineState
	address common.Address
	owner   *access.Ownable
	cfg     state.VestingConfig
}

var _ nft.MintHook = (*Engine)(nil)

// Deploy creates an engine at address paying rewards in rewardToken. Only
// caller may deliver mint notifications. The owner is approved to move the
// engine's entire reward balance.
func Deploy(env nativecommon.Env, st engineState, address, owner, rewardToken, caller common.Address, opts Options) (*Engine, error) {
	blocksPerDay := opts.BlocksPerDay
	if blocksPerDay == 0 {
		blocksPerDay = DefaultBlocksPerDay
	}
	if blocksPerDay > math.MaxUint64/MaxVestingDurationDays {
		return nil, ErrInvalidBlocksDay
	}
	e := &Engine{
		env:     env,
		state:   st,
		address: address,
		owner:   access.NewOwnable(env, st, address, "vesting"),
		cfg: state.VestingConfig{
			Owner:        owner,
			Caller:       caller,
			RewardToken:  rewardToken,
			BlocksPerDay: blocksPerDay,
		},
	}
	err := env.Atomic(func() error {
		if _, exists, err := st.VestingConfig(address); err != nil {
			return err
		} else if exists {
			return ErrEngineExists
		}
		if err := st.VestingConfigPut(address, &e.cfg); err != nil {
			return err
		}
		if err := e.owner.Init(owner); err != nil {
			return err
		}
		impl, ok := env.Resolve(rewardToken)
		if !ok {
			return ErrTokenNotDeployed
		}
		if token, ok := impl.(approver); ok {
			return token.Approve(address, owner, nativecommon.MaxUint256())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Open attaches to an engine deployed earlier.
func Open(env nativecommon.Env, st engineState, address common.Address) (*Engine, error) {
	cfg, ok, err := st.VestingConfig(address)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEngineNotFound
	}
	return &Engine{
		env:     env,
		state:   st,
		address: address,
		owner:   access.NewOwnable(env, st, address, "vesting"),
		cfg:     *cfg,
	}, nil
}

// Address returns the engine's contract address.
func (e *Engine) Address() common.Address { return e.address }

// Caller returns the only address allowed to report mints.
func (e *Engine) Caller() common.Address { return e.cfg.Caller }

// RewardToken returns the token paid out by claims.
func (e *Engine) RewardToken() common.Address { return e.cfg.RewardToken }

// BlocksPerDay converts vesting days into blocks.
func (e *Engine) BlocksPerDay() uint64 { return e.cfg.BlocksPerDay }

// Owner returns the address allowed to change parameters and rescue funds.
func (e *Engine) Owner() (common.Address, error) { return e.owner.Owner() }

// TransferOwnership hands the engine to next.
func (e *Engine) TransferOwnership(caller, next common.Address) error {
	return e.owner.TransferOwnership(caller, next)
}

// RewardParameters returns the current parameters. The boolean is false
// until the owner sets them for the first time.
func (e *Engine) RewardParameters() (Params, bool, error) {
	stored, err := e.state.VestingParams(e.address)
	if err != nil {
		return Params{}, false, err
	}
	return Params{
		EarnStartBlock:      stored.EarnStartBlock,
		EarnEndBlock:        stored.EarnEndBlock,
		EligibleExtraStart:  stored.EligibleExtraStart,
		EligibleExtraEnd:    stored.EligibleExtraEnd,
		VestingDurationDays: stored.VestingDurationDays,
		RewardAmount:        stored.RewardAmount,
	}, stored.Set, nil
}

// SetRewardParameters replaces the parameters wholesale. Owner only.
func (e *Engine) SetRewardParameters(caller common.Address, p Params) error {
	return e.env.Atomic(func() error {
		if err := e.owner.RequireOwner(caller); err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}
		stored := &state.VestingParams{
			Set:                 true,
			EarnStartBlock:      p.EarnStartBlock,
			EarnEndBlock:        p.EarnEndBlock,
			EligibleExtraStart:  new(big.Int).Set(zero(p.EligibleExtraStart)),
			EligibleExtraEnd:    new(big.Int).Set(zero(p.EligibleExtraEnd)),
			VestingDurationDays: p.VestingDurationDays,
			RewardAmount:        new(big.Int).Set(zero(p.RewardAmount)),
		}
		if err := e.state.VestingParamsPut(e.address, stored); err != nil {
			return err
		}
		e.state.AddLog(events.VestingParametersSet{
			Engine:              e.address,
			EarnStartBlock:      stored.EarnStartBlock,
			EarnEndBlock:        stored.EarnEndBlock,
			EligibleExtraStart:  stored.EligibleExtraStart,
			EligibleExtraEnd:    stored.EligibleExtraEnd,
			VestingDurationDays: stored.VestingDurationDays,
			RewardAmount:        stored.RewardAmount,
		})
		return nil
	})
}

// OnMint records a grant for beneficiary when the mint qualifies: the
// operator minted to itself, both windows match and no grant exists yet.
// Non-qualifying mints are ignored. Only the configured caller may notify.
func (e *Engine) OnMint(caller, operator, beneficiary common.Address, tokenID, extra *big.Int) error {
	return e.env.Atomic(func() error {
		if caller != e.cfg.Caller {
			return ErrNotCaller
		}
		if operator != beneficiary {
			return nil
		}
		params, set, err := e.RewardParameters()
		if err != nil {
			return err
		}
		if !set || params.RewardAmount.Sign() == 0 {
			return nil
		}
		block := e.env.BlockNumber()
		if !params.eligible(block, zero(extra)) {
			return nil
		}
		if _, exists, err := e.state.VestingGrant(e.address, beneficiary); err != nil || exists {
			return err
		}
		grant := &state.VestingGrant{
			Amount:         new(big.Int).Set(params.RewardAmount),
			StartBlock:     block,
			DurationBlocks: params.VestingDurationDays * e.cfg.BlocksPerDay,
			Claimed:        new(big.Int),
		}
		if err := e.state.VestingGrantPut(e.address, beneficiary, grant); err != nil {
			return err
		}
		e.state.AddLog(events.VestingGrantAdded{
			Engine:         e.address,
			Beneficiary:    beneficiary,
			Amount:         new(big.Int).Set(grant.Amount),
			StartBlock:     grant.StartBlock,
			DurationBlocks: grant.DurationBlocks,
		})
		return nil
	})
}

// TokenGrant returns the grant of beneficiary. An address without a grant
// yields the zero grant.
func (e *Engine) TokenGrant(beneficiary common.Address) (Grant, error) {
	stored, ok, err := e.state.VestingGrant(e.address, beneficiary)
	if err != nil {
		return Grant{}, err
	}
	if !ok {
		return Grant{Amount: new(big.Int), Claimed: new(big.Int)}, nil
	}
	return Grant{
		Amount:         stored.Amount,
		StartBlock:     stored.StartBlock,
		DurationBlocks: stored.DurationBlocks,
		Claimed:        stored.Claimed,
	}, nil
}

// VestedBalance returns how much of the grant has been released at the
// current block.
func (e *Engine) VestedBalance(beneficiary common.Address) (*big.Int, error) {
	grant, err := e.TokenGrant(beneficiary)
	if err != nil {
		return nil, err
	}
	return grant.Vested(e.env.BlockNumber())
}

// CalculateGrantClaim returns the vested amount not yet claimed.
func (e *Engine) CalculateGrantClaim(beneficiary common.Address) (*big.Int, error) {
	grant, err := e.TokenGrant(beneficiary)
	if err != nil {
		return nil, err
	}
	return grant.Claimable(e.env.BlockNumber())
}

// ClaimedBalance returns how much of the grant has been paid out.
func (e *Engine) ClaimedBalance(beneficiary common.Address) (*big.Int, error) {
	grant, err := e.TokenGrant(beneficiary)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(grant.Claimed), nil
}

func (e *Engine) token(addr common.Address) (Token, error) {
	impl, ok := e.env.Resolve(addr)
	if !ok {
		return nil, ErrTokenNotDeployed
	}
	token, ok := impl.(Token)
	if !ok {
		return nil, ErrTokenNotDeployed
	}
	return token, nil
}

// ClaimVestedTokens pays the claimable amount to beneficiary and returns it.
// The call fails without effect when the engine cannot cover the payout.
func (e *Engine) ClaimVestedTokens(beneficiary common.Address) (*big.Int, error) {
	var amount *big.Int
	err := e.env.Atomic(func() error {
		stored, ok, err := e.state.VestingGrant(e.address, beneficiary)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoGrant
		}
		grant := Grant{Amount: stored.Amount, StartBlock: stored.StartBlock, DurationBlocks: stored.DurationBlocks, Claimed: stored.Claimed}
		amount, err = grant.Claimable(e.env.BlockNumber())
		if err != nil {
			return err
		}
		if amount.Sign() == 0 {
			return nil
		}
		stored.Claimed = new(big.Int).Add(stored.Claimed, amount)
		if err := e.state.VestingGrantPut(e.address, beneficiary, stored); err != nil {
			return err
		}
		token, err := e.token(e.cfg.RewardToken)
		if err != nil {
			return err
		}
		if err := token.Transfer(e.address, beneficiary, amount); err != nil {
			return err
		}
		e.state.AddLog(events.VestingTokensClaimed{
			Engine:      e.address,
			Beneficiary: beneficiary,
			Amount:      new(big.Int).Set(amount),
			Claimed:     new(big.Int).Set(stored.Claimed),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// Rescue sends the engine's whole balance of tokenAddr to the owner. Owner
// only; any token may be rescued, the reward token included.
func (e *Engine) Rescue(caller, tokenAddr common.Address) (*big.Int, error) {
	var amount *big.Int
	err := e.env.Atomic(func() error {
		if err := e.owner.RequireOwner(caller); err != nil {
			return err
		}
		token, err := e.token(tokenAddr)
		if err != nil {
			return err
		}
		amount, err = token.BalanceOf(e.address)
		if err != nil {
			return err
		}
		if amount.Sign() > 0 {
			if err := token.Transfer(e.address, caller, amount); err != nil {
				return err
			}
		}
		e.state.AddLog(events.VestingRescued{Engine: e.address, Token: tokenAddr, Recipient: caller, Amount: new(big.Int).Set(amount)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// GrantRecord pairs a beneficiary with its grant.
type GrantRecord struct {
	Beneficiary common.Address
	Grant       Grant
}

// Grants lists every grant in creation order.
func (e *Engine) Grants() ([]GrantRecord, error) {
	beneficiaries, err := e.state.VestingBeneficiaries(e.address)
	if err != nil {
		return nil, err
	}
	out := make([]GrantRecord, 0, len(beneficiaries))
	for _, raw := range beneficiaries {
		addr := common.Address(raw)
		grant, err := e.TokenGrant(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, GrantRecord{Beneficiary: addr, Grant: grant})
	}
	return out, nil
}
