package state

import (
	"math/big"
)

// VestingGrant is the persisted form of a reward grant.
type VestingGrant struct {
	Amount         *big.Int
	StartBlock     uint64
	DurationBlocks uint64
	Claimed        *big.Int
}

// VestingParams is the persisted form of the reward parameters.
type VestingParams struct {
	Set                 bool
	EarnStartBlock      uint64
	EarnEndBlock        uint64
	EligibleExtraStart  *big.Int
	EligibleExtraEnd    *big.Int
	VestingDurationDays uint64
	RewardAmount        *big.Int
}

// VestingConfig holds the construction-time settings of a vesting engine.
type VestingConfig struct {
	Owner        [20]byte
	Caller       [20]byte
	RewardToken  [20]byte
	BlocksPerDay uint64
}

func vestingGrantKey(engine [20]byte, beneficiary [20]byte) []byte {
	return scopedKey("vesting/grant/", engine, beneficiary[:])
}

func vestingBeneficiariesKey(engine [20]byte) []byte {
	return scopedKey("vesting/beneficiaries", engine, nil)
}

func vestingParamsKey(engine [20]byte) []byte {
	return scopedKey("vesting/params", engine, nil)
}

func vestingConfigKey(engine [20]byte) []byte {
	return scopedKey("vesting/config", engine, nil)
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// VestingGrant loads the grant of beneficiary.
func (m *Manager) VestingGrant(engine [20]byte, beneficiary [20]byte) (*VestingGrant, bool, error) {
	grant := new(VestingGrant)
	ok, err := m.KVGet(vestingGrantKey(engine, beneficiary), grant)
	if err != nil || !ok {
		return nil, false, err
	}
	grant.Amount = zeroIfNil(grant.Amount)
	grant.Claimed = zeroIfNil(grant.Claimed)
	return grant, true, nil
}

// VestingGrantPut stores the grant of beneficiary and indexes the beneficiary
// on first write.
func (m *Manager) VestingGrantPut(engine [20]byte, beneficiary [20]byte, grant *VestingGrant) error {
	stored := *grant
	stored.Amount = zeroIfNil(stored.Amount)
	stored.Claimed = zeroIfNil(stored.Claimed)
	if err := m.KVPut(vestingGrantKey(engine, beneficiary), &stored); err != nil {
		return err
	}
	return m.KVAppend(vestingBeneficiariesKey(engine), beneficiary[:])
}

// VestingBeneficiaries lists every address that has received a grant, in
// grant creation order.
func (m *Manager) VestingBeneficiaries(engine [20]byte) ([][20]byte, error) {
	var raw [][]byte
	if err := m.KVGetList(vestingBeneficiariesKey(engine), &raw); err != nil {
		return nil, err
	}
	out := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		var addr [20]byte
		copy(addr[:], entry)
		out = append(out, addr)
	}
	return out, nil
}

// VestingParams loads the reward parameters; an unset record is returned with
// Set=false.
func (m *Manager) VestingParams(engine [20]byte) (*VestingParams, error) {
	params := new(VestingParams)
	if _, err := m.KVGet(vestingParamsKey(engine), params); err != nil {
		return nil, err
	}
	params.EligibleExtraStart = zeroIfNil(params.EligibleExtraStart)
	params.EligibleExtraEnd = zeroIfNil(params.EligibleExtraEnd)
	params.RewardAmount = zeroIfNil(params.RewardAmount)
	return params, nil
}

// VestingParamsPut replaces the reward parameters wholesale.
func (m *Manager) VestingParamsPut(engine [20]byte, params *VestingParams) error {
	stored := *params
	stored.EligibleExtraStart = zeroIfNil(stored.EligibleExtraStart)
	stored.EligibleExtraEnd = zeroIfNil(stored.EligibleExtraEnd)
	stored.RewardAmount = zeroIfNil(stored.RewardAmount)
	return m.KVPut(vestingParamsKey(engine), &stored)
}

// VestingConfig loads the construction-time settings of the engine.
func (m *Manager) VestingConfig(engine [20]byte) (*VestingConfig, bool, error) {
	cfg := new(VestingConfig)
	ok, err := m.KVGet(vestingConfigKey(engine), cfg)
	if err != nil || !ok {
		return nil, false, err
	}
	return cfg, true, nil
}

// VestingConfigPut stores the construction-time settings of the engine.
func (m *Manager) VestingConfigPut(engine [20]byte, cfg *VestingConfig) error {
	return m.KVPut(vestingConfigKey(engine), cfg)
}
