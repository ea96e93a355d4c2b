package types

// Preset scenarios, mirroring the sizes the dashboard ships with.

// ScenarioTiny is the smallest self-consistent scenario, handy in tests.
func ScenarioTiny() ScenarioConfig {
	return ScenarioConfig{
		ValidatorCount:     3,
		MinerCount:         4,
		EpochCount:         10,
		StakeSeeding:       SeedingEqual,
		InitialStakeTotal:  3000,
		WeightStrategy:     StrategyStatic,
		BondsAlpha:         0.1,
		EmissionPerEpoch:   100,
		EmissionSplitRatio: 0.5,
		ConsensusKappa:     0.5,
		Seed:               42,
	}
}

// ScenarioDefault matches a mature subnet: a mid-sized validator set with
// noisy weight setting over a larger miner population.
func ScenarioDefault() ScenarioConfig {
	return ScenarioConfig{
		ValidatorCount:     16,
		MinerCount:         64,
		EpochCount:         360,
		StakeSeeding:       SeedingLinear,
		InitialStakeTotal:  100000,
		WeightStrategy:     StrategyPerturbed,
		BondsAlpha:         0.1,
		EmissionPerEpoch:   1000,
		EmissionSplitRatio: 0.5,
		ConsensusKappa:     0.5,
		Seed:               1,
	}
}

// ScenarioAdversarial seeds a colluding validator minority that concentrates
// weight on a single miner, for studying consensus clipping.
func ScenarioAdversarial() ScenarioConfig {
	cfg := ScenarioDefault()
	cfg.WeightStrategy = StrategyAdversarial
	return cfg
}
