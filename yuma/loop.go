package yuma

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/dtaolabs/subnetsim/log"
	"github.com/dtaolabs/subnetsim/simerrors"
	"github.com/dtaolabs/subnetsim/types"
)

// RunStatus is the simulation state machine. Completed and Failed are
// terminal; a cancelled run completes with the committed prefix.
type RunStatus int

const (
	Initializing RunStatus = iota
	Running
	Completed
	Failed
)

func (s RunStatus) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Simulation drives the epoch sequence for one scenario. Each run owns its
// rng, builder and history; concurrent runs share nothing.
type Simulation struct {
	cfg       types.ScenarioConfig
	rng       *rand.Rand
	builder   *WeightMatrixBuilder
	bonds     *BondsTracker
	allocator *EmissionAllocator
	history   []types.EpochState
	status    RunStatus
}

// NewSimulation validates the scenario and prepares the genesis state.
// Configuration errors are fatal and surface before any epoch runs.
func NewSimulation(cfg types.ScenarioConfig) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	strategy, err := StrategyFromConfig(&cfg, rng)
	if err != nil {
		return nil, err
	}
	s := &Simulation{
		cfg:       cfg,
		rng:       rng,
		builder:   NewWeightMatrixBuilder(strategy, rng),
		bonds:     NewBondsTracker(cfg.BondsAlpha),
		allocator: NewEmissionAllocator(cfg.EmissionPerEpoch, cfg.EmissionSplitRatio),
		status:    Initializing,
	}
	s.history = append(s.history, *genesisState(&cfg, rng))
	return s, nil
}

// genesisState seeds epoch 0: stake distribution from config, zero bonds,
// all-abstain weights.
func genesisState(cfg *types.ScenarioConfig, rng *rand.Rand) *types.EpochState {
	validatorStakes := seedStakes(cfg, rng)
	validators := make([]types.Validator, cfg.ValidatorCount)
	for i := range validators {
		validators[i] = types.Validator{
			ID:      uint32(i),
			Stake:   validatorStakes[i],
			Weights: make([]float64, cfg.MinerCount),
			Bonds:   make([]float64, cfg.MinerCount),
		}
	}
	miners := make([]types.Miner, cfg.MinerCount)
	for j := range miners {
		miners[j] = types.Miner{ID: uint32(j)}
		if len(cfg.MinerStakes) == cfg.MinerCount {
			miners[j].Stake = cfg.MinerStakes[j]
		}
	}
	return &types.EpochState{
		Epoch:      0,
		Miners:     miners,
		Validators: validators,
		Weights:    types.NewWeightMatrix(cfg.ValidatorCount, cfg.MinerCount),
		Bonds:      types.NewBondsMatrix(cfg.ValidatorCount, cfg.MinerCount),
	}
}

func seedStakes(cfg *types.ScenarioConfig, rng *rand.Rand) []float64 {
	if len(cfg.ValidatorStakes) == cfg.ValidatorCount {
		return append([]float64(nil), cfg.ValidatorStakes...)
	}
	n := cfg.ValidatorCount
	stakes := make([]float64, n)
	switch cfg.StakeSeeding {
	case types.SeedingLinear:
		for i := range stakes {
			stakes[i] = float64(i + 1)
		}
	case types.SeedingRandom:
		for i := range stakes {
			stakes[i] = rng.Float64()
		}
	default: // SeedingEqual
		for i := range stakes {
			stakes[i] = 1
		}
	}
	sum := 0.0
	for _, s := range stakes {
		sum += s
	}
	if sum == 0 {
		return stakes
	}
	for i := range stakes {
		stakes[i] = stakes[i] / sum * cfg.InitialStakeTotal
	}
	return stakes
}

// Run executes the configured epoch count. Cancellation is cooperative and
// checked only at epoch boundaries: a cancelled run returns the committed
// prefix with a nil error. Any component failure aborts the run at epoch
// granularity and is returned alongside the committed history.
func (s *Simulation) Run(ctx context.Context) ([]types.EpochState, error) {
	if s.status != Initializing {
		return s.History(), fmt.Errorf("%w status=%s", simerrors.ErrRunAlreadyStarted, s.status)
	}
	s.status = Running
	log.Info(log.SimMonitoring, "simulation started",
		"validators", s.cfg.ValidatorCount, "miners", s.cfg.MinerCount,
		"epochs", s.cfg.EpochCount, "strategy", s.cfg.WeightStrategy, "seed", s.cfg.Seed)

	for epoch := 1; epoch <= s.cfg.EpochCount; epoch++ {
		select {
		case <-ctx.Done():
			s.status = Completed
			log.Info(log.SimMonitoring, "simulation cancelled", "committed", epoch-1)
			return s.History(), nil
		default:
		}

		prev := &s.history[len(s.history)-1]
		next, err := s.stepEpoch(prev, epoch)
		if err != nil {
			s.status = Failed
			log.Error(log.SimMonitoring, "epoch failed", "epoch", epoch, "err", err)
			return s.History(), err
		}
		s.history = append(s.history, *next)
		log.Debug(log.SimMonitoring, "epoch committed", "epoch", epoch,
			"miner_emission", next.MinerEmission, "validator_emission", next.ValidatorEmission)
	}
	s.status = Completed
	return s.History(), nil
}

// stepEpoch is the pure transition function: weights, consensus, bonds and
// emission in that fixed order, producing a fresh snapshot. prev is not
// mutated; a failing component leaves nothing half-applied.
func (s *Simulation) stepEpoch(prev *types.EpochState, epoch int) (*types.EpochState, error) {
	weights, err := s.builder.Build(prev)
	if err != nil {
		return nil, err
	}

	consensus, err := ComputeConsensus(prev.Validators, weights, s.cfg.ConsensusKappa)
	if err != nil {
		return nil, err
	}

	bonds := s.bonds.Update(prev.Bonds, consensus.Clipped)
	dividends := Dividends(bonds, consensus.Incentive)

	miners, validators, minerTotal, validatorTotal, err := s.allocator.Allocate(prev.Miners, prev.Validators, consensus.Incentive, dividends)
	if err != nil {
		return nil, err
	}

	for j := range miners {
		miners[j].Rank = consensus.Rank[j]
		miners[j].Trust = consensus.Trust[j]
		miners[j].Consensus = consensus.Consensus[j]
		miners[j].Incentive = consensus.Incentive[j]
	}
	for i := range validators {
		validators[i].Weights = weights.Row(i)
		validators[i].Bonds = bonds.Row(i)
	}

	return &types.EpochState{
		Epoch:             epoch,
		Miners:            miners,
		Validators:        validators,
		Weights:           weights,
		Bonds:             bonds,
		MinerEmission:     minerTotal,
		ValidatorEmission: validatorTotal,
	}, nil
}

// History returns a copy of the committed snapshots, genesis included.
func (s *Simulation) History() []types.EpochState {
	out := make([]types.EpochState, len(s.history))
	for i := range s.history {
		out[i] = *s.history[i].Copy()
	}
	return out
}

func (s *Simulation) Status() RunStatus { return s.status }

func (s *Simulation) Config() types.ScenarioConfig { return s.cfg }

// Summary builds the terminal report over whatever prefix is committed.
func (s *Simulation) Summary() *types.Summary {
	return types.NewSummary(&s.cfg, s.history, s.status.String())
}
