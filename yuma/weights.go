package yuma

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/dtaolabs/subnetsim/simerrors"
	"github.com/dtaolabs/subnetsim/types"
)

// Strategy produces each validator's raw (pre-normalization) weight row for
// the coming epoch. Implementations must consume rng in a fixed order so a
// seeded run stays deterministic.
type Strategy interface {
	Name() string
	Propose(prev *types.EpochState, validator int, rng *rand.Rand) []float64
}

// StrategyFromConfig resolves the configured strategy name. The preference
// profile shared by the built-in strategies is drawn from rng here, before
// the first epoch, so it is fixed for the whole run.
func StrategyFromConfig(cfg *types.ScenarioConfig, rng *rand.Rand) (Strategy, error) {
	quality := make([]float64, cfg.MinerCount)
	for j := range quality {
		quality[j] = 0.5 + rng.Float64()
	}
	switch cfg.WeightStrategy {
	case types.StrategyStatic:
		return &staticStrategy{quality: quality}, nil
	case types.StrategyPerturbed:
		return &perturbedStrategy{quality: quality, noise: defaultNoiseScale}, nil
	case types.StrategyAdversarial:
		colluders := cfg.ValidatorCount / 4
		if colluders < 1 {
			colluders = 1
		}
		return &adversarialStrategy{
			honest:    perturbedStrategy{quality: quality, noise: defaultNoiseScale},
			colluders: colluders,
			target:    0,
		}, nil
	default:
		return nil, fmt.Errorf("%w got=%q", simerrors.ErrConfigUnknownStrategy, cfg.WeightStrategy)
	}
}

const defaultNoiseScale = 0.2

// staticStrategy repeats the same preference profile every epoch.
type staticStrategy struct {
	quality []float64
}

func (s *staticStrategy) Name() string { return types.StrategyStatic }

func (s *staticStrategy) Propose(prev *types.EpochState, validator int, rng *rand.Rand) []float64 {
	return append([]float64(nil), s.quality...)
}

// perturbedStrategy jitters the shared profile with fresh multiplicative
// noise per validator per epoch.
type perturbedStrategy struct {
	quality []float64
	noise   float64
}

func (s *perturbedStrategy) Name() string { return types.StrategyPerturbed }

func (s *perturbedStrategy) Propose(prev *types.EpochState, validator int, rng *rand.Rand) []float64 {
	row := make([]float64, len(s.quality))
	for j, q := range s.quality {
		jitter := 1 + s.noise*(2*rng.Float64()-1)
		row[j] = q * jitter
	}
	return row
}

// adversarialStrategy has the last `colluders` validators pile all weight
// onto one target miner while the rest vote honestly.
type adversarialStrategy struct {
	honest    perturbedStrategy
	colluders int
	target    int
}

func (s *adversarialStrategy) Name() string { return types.StrategyAdversarial }

func (s *adversarialStrategy) Propose(prev *types.EpochState, validator int, rng *rand.Rand) []float64 {
	honest := s.honest.Propose(prev, validator, rng)
	if validator < len(prev.Validators)-s.colluders {
		return honest
	}
	// rng was consumed above either way, keeping colluder placement from
	// shifting the honest validators' draws.
	row := make([]float64, len(honest))
	row[s.target] = 1
	return row
}

// WeightMatrixBuilder turns a strategy's raw rows into the epoch's
// normalized WeightMatrix.
type WeightMatrixBuilder struct {
	strategy Strategy
	rng      *rand.Rand
}

func NewWeightMatrixBuilder(strategy Strategy, rng *rand.Rand) *WeightMatrixBuilder {
	return &WeightMatrixBuilder{strategy: strategy, rng: rng}
}

// Build produces the weight matrix for the epoch after prev. Rows are
// generated validator by validator in ascending identity order, then
// normalized; an all-zero row is preserved as a valid abstain vote.
func (b *WeightMatrixBuilder) Build(prev *types.EpochState) (types.WeightMatrix, error) {
	rows := make([][]float64, len(prev.Validators))
	for i := range prev.Validators {
		raw := b.strategy.Propose(prev, i, b.rng)
		if len(raw) != len(prev.Miners) {
			return types.WeightMatrix{}, fmt.Errorf("%w strategy=%s row=%d len=%d want=%d",
				simerrors.ErrWeightMatrixShape, b.strategy.Name(), i, len(raw), len(prev.Miners))
		}
		normalized, err := NormalizeRow(raw)
		if err != nil {
			return types.WeightMatrix{}, fmt.Errorf("%w (validator=%d strategy=%s)", err, i, b.strategy.Name())
		}
		rows[i] = normalized
	}
	return types.WeightMatrixFromRows(rows, len(prev.Miners))
}

// NormalizeRow clips negative entries to zero and scales the row to sum to
// one. The all-zero row is returned unchanged (abstain); a NaN or infinite
// entry is malformed input. Normalizing an already-normalized row leaves it
// unchanged.
func NormalizeRow(row []float64) ([]float64, error) {
	out := make([]float64, len(row))
	sum := 0.0
	for j, w := range row {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w col=%d w=%v", simerrors.ErrWeightNotFinite, j, w)
		}
		if w < 0 {
			w = 0
		}
		out[j] = w
		sum += w
	}
	if sum == 0 {
		return out, nil
	}
	// An already-normalized row passes through untouched so normalization
	// is idempotent despite floating rounding.
	if math.Abs(sum-1) <= types.SumTolerance {
		return out, nil
	}
	for j := range out {
		out[j] /= sum
	}
	return out, nil
}
