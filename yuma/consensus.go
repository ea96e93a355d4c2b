package yuma

import (
	"fmt"
	"math"
	"sort"

	"github.com/dtaolabs/subnetsim/simerrors"
	"github.com/dtaolabs/subnetsim/types"
)

// ConsensusResult carries one epoch's consensus computation: per-miner rank,
// trust, consensus threshold and incentive, plus the clipped weight matrix
// the bonds EMA tracks.
type ConsensusResult struct {
	Rank      []float64
	Trust     []float64
	Consensus []float64
	Incentive []float64
	Clipped   types.WeightMatrix
}

// ComputeConsensus turns stakes and weights into rank, trust, consensus and
// incentive. Ranks are normalized by total validator stake; consensus is the
// stake-weighted median opinion per miner; weights above consensus*(1+kappa)
// are clipped before the incentive rank is taken.
func ComputeConsensus(validators []types.Validator, weights types.WeightMatrix, kappa float64) (*ConsensusResult, error) {
	numValidators := len(validators)
	numMiners := weights.Cols
	if weights.Rows != numValidators {
		return nil, fmt.Errorf("%w weights rows=%d validators=%d", simerrors.ErrStateShape, weights.Rows, numValidators)
	}

	totalStake := 0.0
	for i := range validators {
		totalStake += validators[i].Stake
	}
	if totalStake <= 0 {
		return nil, fmt.Errorf("%w validators=%d", simerrors.ErrDegenerateState, numValidators)
	}

	// Normalized stake shares, fixed iteration order for determinism.
	share := make([]float64, numValidators)
	for i := range validators {
		share[i] = validators[i].Stake / totalStake
	}

	res := &ConsensusResult{
		Rank:      make([]float64, numMiners),
		Trust:     make([]float64, numMiners),
		Consensus: make([]float64, numMiners),
		Incentive: make([]float64, numMiners),
		Clipped:   types.NewWeightMatrix(numValidators, numMiners),
	}

	for j := 0; j < numMiners; j++ {
		column := make([]float64, numValidators)
		for i := 0; i < numValidators; i++ {
			column[i] = weights.At(i, j)
		}
		for i := 0; i < numValidators; i++ {
			res.Rank[j] += share[i] * column[i]
			if column[i] > types.TrustEpsilon {
				res.Trust[j] += share[i]
			}
		}
		res.Consensus[j] = stakeWeightedMedian(column, share)
	}

	// Clip each opinion at the majority-approved level plus tolerance, then
	// take the incentive rank over the clipped matrix.
	clippedRank := make([]float64, numMiners)
	incentiveSum := 0.0
	for i := 0; i < numValidators; i++ {
		for j := 0; j < numMiners; j++ {
			clipped := math.Min(weights.At(i, j), res.Consensus[j]*(1+kappa))
			res.Clipped.Entries[i][j] = clipped
			clippedRank[j] += share[i] * clipped
		}
	}
	for j := 0; j < numMiners; j++ {
		incentiveSum += clippedRank[j]
	}
	if incentiveSum > 0 {
		for j := 0; j < numMiners; j++ {
			res.Incentive[j] = clippedRank[j] / incentiveSum
		}
	}
	return res, nil
}

// stakeWeightedMedian returns the smallest opinion value whose cumulative
// stake share reaches one half. Ties are broken by ascending validator
// identity: the sort is stable over the identity-ordered input.
func stakeWeightedMedian(values []float64, share []float64) float64 {
	type entry struct {
		value float64
		share float64
	}
	entries := make([]entry, len(values))
	for i := range values {
		entries[i] = entry{values[i], share[i]}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].value < entries[b].value
	})
	cumulative := 0.0
	for _, e := range entries {
		cumulative += e.share
		if cumulative >= 0.5 {
			return e.value
		}
	}
	// Cumulative shares sum to 1 up to rounding; fall back to the largest.
	return entries[len(entries)-1].value
}
