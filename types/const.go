package types

const (
	// SumTolerance bounds the floating error accepted when checking that a
	// normalized row or an epoch's stake deltas sum to their target.
	SumTolerance = 1e-9

	// TrustEpsilon is the minimum unclipped weight that counts as a
	// validator "vouching" for a miner when computing trust breadth.
	TrustEpsilon = 1e-6
)

// Weight strategies accepted by ScenarioConfig.WeightStrategy.
const (
	StrategyStatic      = "static"      // fixed preference profile, constant across epochs
	StrategyPerturbed   = "perturbed"   // preference profile plus per-epoch noise
	StrategyAdversarial = "adversarial" // a colluding minority concentrates weight on one miner
)

// Stake seeding modes accepted by ScenarioConfig.StakeSeeding.
const (
	SeedingEqual  = "equal"  // every validator starts with total/n
	SeedingLinear = "linear" // stake proportional to validator index + 1
	SeedingRandom = "random" // stake drawn from the scenario rng, then scaled to total
)
