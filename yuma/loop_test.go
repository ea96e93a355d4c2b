package yuma

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/require"

	"github.com/dtaolabs/subnetsim/simerrors"
	"github.com/dtaolabs/subnetsim/types"
)

func soloScenario() types.ScenarioConfig {
	return types.ScenarioConfig{
		ValidatorCount:     1,
		MinerCount:         1,
		EpochCount:         5,
		StakeSeeding:       types.SeedingEqual,
		InitialStakeTotal:  1000,
		WeightStrategy:     types.StrategyStatic,
		BondsAlpha:         0.1,
		EmissionPerEpoch:   100,
		EmissionSplitRatio: 0.5,
		ConsensusKappa:     0.5,
		Seed:               1,
	}
}

func TestRunSingleValidatorSingleMiner(t *testing.T) {
	// One validator, one miner: the normalized weight is [1], so the miner
	// takes the whole miner pool and the validator the whole validator pool,
	// every epoch.
	sim, err := NewSimulation(soloScenario())
	require.NoError(t, err)

	history, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Completed, sim.Status())
	require.Len(t, history, 6) // genesis + 5 epochs

	for e := 1; e <= 5; e++ {
		st := history[e]
		require.InDelta(t, 1.0, st.Miners[0].Incentive, types.SumTolerance)
		require.InDelta(t, 1.0, st.Validators[0].Dividend, types.SumTolerance)
		require.InDelta(t, float64(e)*50, st.Miners[0].Stake, types.SumTolerance)
		require.InDelta(t, 1000+float64(e)*50, st.Validators[0].Stake, types.SumTolerance)
	}

	summary := sim.Summary()
	require.Equal(t, 5, summary.EpochsCommitted)
	require.Equal(t, "completed", summary.Status)
	require.InDelta(t, 500.0, summary.TotalEmitted, types.SumTolerance)
	require.InDelta(t, 1.0, summary.Herfindahl, types.SumTolerance)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := types.ScenarioTiny()
	cfg.WeightStrategy = types.StrategyPerturbed
	cfg.StakeSeeding = types.SeedingRandom

	run := func() []byte {
		sim, err := NewSimulation(cfg)
		require.NoError(t, err)
		history, err := sim.Run(context.Background())
		require.NoError(t, err)
		enc, err := json.Marshal(history)
		require.NoError(t, err)
		return enc
	}

	first := run()
	second := run()
	opts := jsondiff.DefaultConsoleOptions()
	diff, report := jsondiff.Compare(first, second, &opts)
	require.Equal(t, jsondiff.FullMatch, diff, report)
}

func TestRunCancelledReturnsCommittedPrefix(t *testing.T) {
	sim, err := NewSimulation(soloScenario())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	history, err := sim.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, Completed, sim.Status())
	require.Len(t, history, 1) // genesis only, nothing committed
	require.Equal(t, 0, sim.Summary().EpochsCommitted)
}

func TestRunNotRestartable(t *testing.T) {
	sim, err := NewSimulation(soloScenario())
	require.NoError(t, err)

	_, err = sim.Run(context.Background())
	require.NoError(t, err)

	_, err = sim.Run(context.Background())
	require.ErrorIs(t, err, simerrors.ErrRunAlreadyStarted)
}

func TestRunZeroStakeFailsFirstEpoch(t *testing.T) {
	cfg := soloScenario()
	cfg.ValidatorCount = 2
	cfg.ValidatorStakes = []float64{0, 0}

	sim, err := NewSimulation(cfg)
	require.NoError(t, err)

	history, err := sim.Run(context.Background())
	require.ErrorIs(t, err, simerrors.ErrDegenerateState)
	require.Equal(t, Failed, sim.Status())
	require.Len(t, history, 1)
	require.Equal(t, 0.0, history[0].Validators[0].Stake)
	require.Equal(t, 0.0, history[0].Miners[0].Stake)
}

func TestAbstainingValidatorEarnsNothing(t *testing.T) {
	// Two of three equal-stake validators vote, one abstains: abstaining is
	// valid (no weight error), the abstainer just earns no dividend while the
	// majority carries consensus.
	cfg := soloScenario()
	cfg.ValidatorCount = 3
	cfg.MinerCount = 2
	cfg.EpochCount = 1

	rng := rand.New(rand.NewSource(cfg.Seed))
	sim := &Simulation{
		cfg:       cfg,
		rng:       rng,
		builder:   NewWeightMatrixBuilder(abstainStrategy{abstainer: 2}, rng),
		bonds:     NewBondsTracker(cfg.BondsAlpha),
		allocator: NewEmissionAllocator(cfg.EmissionPerEpoch, cfg.EmissionSplitRatio),
		status:    Initializing,
	}
	sim.history = append(sim.history, *genesisState(&cfg, rng))

	history, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)

	st := history[1]
	require.True(t, st.Weights.IsAbstain(2))
	require.Equal(t, 0.0, st.Validators[2].Dividend)
	require.Equal(t, 0.0, st.Validators[2].Emission)
	require.InDelta(t, 0.5, st.Validators[0].Dividend, types.SumTolerance)
	require.InDelta(t, 0.5, st.Validators[1].Dividend, types.SumTolerance)
}

func TestRunInvariantsHoldEveryEpoch(t *testing.T) {
	cfg := types.ScenarioTiny()
	cfg.WeightStrategy = types.StrategyPerturbed
	cfg.EpochCount = 25

	sim, err := NewSimulation(cfg)
	require.NoError(t, err)
	history, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, history, cfg.EpochCount+1)

	for e := 1; e < len(history); e++ {
		st := history[e]
		require.Equal(t, e, st.Epoch)
		require.NoError(t, st.Weights.Validate())
		require.NoError(t, st.Bonds.Validate())

		incentiveSum := 0.0
		for _, m := range st.Miners {
			require.GreaterOrEqual(t, m.Incentive, 0.0)
			require.LessOrEqual(t, m.Incentive, 1.0)
			incentiveSum += m.Incentive
		}
		require.InDelta(t, 1.0, incentiveSum, types.SumTolerance)

		// Stake deltas against the previous snapshot must equal exactly what
		// the epoch reports as emitted.
		prev := history[e-1]
		delta := 0.0
		for j := range st.Miners {
			delta += st.Miners[j].Stake - prev.Miners[j].Stake
		}
		for i := range st.Validators {
			delta += st.Validators[i].Stake - prev.Validators[i].Stake
		}
		require.InDelta(t, st.MinerEmission+st.ValidatorEmission, delta, types.SumTolerance*cfg.EmissionPerEpoch)
		require.InDelta(t, cfg.EmissionPerEpoch, st.MinerEmission+st.ValidatorEmission, types.SumTolerance*cfg.EmissionPerEpoch)
	}
}

func TestHistoryReturnsDeepCopies(t *testing.T) {
	sim, err := NewSimulation(soloScenario())
	require.NoError(t, err)
	_, err = sim.Run(context.Background())
	require.NoError(t, err)

	first := sim.History()
	first[1].Miners[0].Stake = -1
	first[1].Weights.Entries[0][0] = -1

	second := sim.History()
	require.InDelta(t, 50.0, second[1].Miners[0].Stake, types.SumTolerance)
	require.InDelta(t, 1.0, second[1].Weights.At(0, 0), types.SumTolerance)
}
