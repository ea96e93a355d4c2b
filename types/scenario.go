package types

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dtaolabs/subnetsim/simerrors"
)

// ScenarioConfig fully determines a simulation run. Two runs with equal
// configs (including Seed) produce identical EpochState sequences.
type ScenarioConfig struct {
	ValidatorCount int `json:"validator_count"`
	MinerCount     int `json:"miner_count"`
	EpochCount     int `json:"epoch_count"`

	// StakeSeeding selects how InitialStakeTotal is spread over validators
	// at epoch 0. Ignored when ValidatorStakes is set explicitly.
	StakeSeeding      string    `json:"initial_stake_distribution"`
	InitialStakeTotal float64   `json:"initial_stake_total"`
	ValidatorStakes   []float64 `json:"validator_stakes,omitempty"`
	MinerStakes       []float64 `json:"miner_stakes,omitempty"`

	WeightStrategy string `json:"weight_strategy"`

	BondsAlpha         float64 `json:"bonds_alpha"`
	EmissionPerEpoch   float64 `json:"emission_per_epoch"`
	EmissionSplitRatio float64 `json:"emission_split_ratio"` // miner pool share of the epoch budget
	ConsensusKappa     float64 `json:"consensus_kappa"`

	Seed int64 `json:"random_seed"`
}

// Validate fails fast with a ConfigurationError before any epoch runs.
func (c *ScenarioConfig) Validate() error {
	if c.ValidatorCount < 1 {
		return fmt.Errorf("%w got=%d", simerrors.ErrConfigNoValidators, c.ValidatorCount)
	}
	if c.MinerCount < 1 {
		return fmt.Errorf("%w got=%d", simerrors.ErrConfigNoMiners, c.MinerCount)
	}
	if c.EpochCount < 1 {
		return fmt.Errorf("%w got=%d", simerrors.ErrConfigBadEpochCount, c.EpochCount)
	}
	if c.BondsAlpha <= 0 || c.BondsAlpha > 1 {
		return fmt.Errorf("%w got=%g", simerrors.ErrConfigBadBondsAlpha, c.BondsAlpha)
	}
	if c.EmissionPerEpoch < 0 || isBad(c.EmissionPerEpoch) {
		return fmt.Errorf("%w got=%g", simerrors.ErrConfigBadEmission, c.EmissionPerEpoch)
	}
	if c.EmissionSplitRatio < 0 || c.EmissionSplitRatio > 1 || isBad(c.EmissionSplitRatio) {
		return fmt.Errorf("%w got=%g", simerrors.ErrConfigBadSplitRatio, c.EmissionSplitRatio)
	}
	if c.ConsensusKappa < 0 || isBad(c.ConsensusKappa) {
		return fmt.Errorf("%w got=%g", simerrors.ErrConfigBadKappa, c.ConsensusKappa)
	}
	switch c.WeightStrategy {
	case StrategyStatic, StrategyPerturbed, StrategyAdversarial:
	default:
		return fmt.Errorf("%w got=%q", simerrors.ErrConfigUnknownStrategy, c.WeightStrategy)
	}
	if len(c.ValidatorStakes) == 0 {
		switch c.StakeSeeding {
		case SeedingEqual, SeedingLinear, SeedingRandom:
		default:
			return fmt.Errorf("%w got=%q", simerrors.ErrConfigUnknownSeeding, c.StakeSeeding)
		}
		if c.InitialStakeTotal < 0 || isBad(c.InitialStakeTotal) {
			return fmt.Errorf("%w initial_stake_total=%g", simerrors.ErrConfigBadStakes, c.InitialStakeTotal)
		}
	} else {
		if len(c.ValidatorStakes) != c.ValidatorCount {
			return fmt.Errorf("%w validator_stakes len=%d want=%d", simerrors.ErrConfigBadStakes, len(c.ValidatorStakes), c.ValidatorCount)
		}
		for _, s := range c.ValidatorStakes {
			if s < 0 || isBad(s) {
				return fmt.Errorf("%w validator stake=%g", simerrors.ErrConfigBadStakes, s)
			}
		}
	}
	if len(c.MinerStakes) != 0 {
		if len(c.MinerStakes) != c.MinerCount {
			return fmt.Errorf("%w miner_stakes len=%d want=%d", simerrors.ErrConfigBadStakes, len(c.MinerStakes), c.MinerCount)
		}
		for _, s := range c.MinerStakes {
			if s < 0 || isBad(s) {
				return fmt.Errorf("%w miner stake=%g", simerrors.ErrConfigBadStakes, s)
			}
		}
	}
	return nil
}

// Hash returns the Keccak-256 of the canonical JSON encoding. It keys the
// run store: equal scenarios share a hash, so a stored run can stand in for
// re-simulating.
func (c *ScenarioConfig) Hash() common.Hash {
	enc, err := json.Marshal(c)
	if err != nil {
		// ScenarioConfig holds only marshalable fields.
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// LoadScenario reads and validates a scenario JSON file.
func LoadScenario(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w read %s: %v", simerrors.ErrConfiguration, path, err)
	}
	var cfg ScenarioConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w decode %s: %v", simerrors.ErrConfiguration, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isBad(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
