package yuma

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dtaolabs/subnetsim/simerrors"
	"github.com/dtaolabs/subnetsim/types"
)

func validatorsWithStakes(stakes ...float64) []types.Validator {
	out := make([]types.Validator, len(stakes))
	for i, s := range stakes {
		out[i] = types.Validator{ID: uint32(i), Stake: s}
	}
	return out
}

func weightsFromRows(t *testing.T, rows [][]float64) types.WeightMatrix {
	t.Helper()
	cols := len(rows[0])
	m, err := types.WeightMatrixFromRows(rows, cols)
	require.NoError(t, err)
	return m
}

func TestComputeConsensusZeroStake(t *testing.T) {
	weights := weightsFromRows(t, [][]float64{{1, 0}, {0, 1}})
	_, err := ComputeConsensus(validatorsWithStakes(0, 0), weights, 0.5)
	require.ErrorIs(t, err, simerrors.ErrDegenerateState)
}

func TestComputeConsensusSingleValidator(t *testing.T) {
	weights := weightsFromRows(t, [][]float64{{0.3, 0.7}})
	res, err := ComputeConsensus(validatorsWithStakes(100), weights, 0.5)
	require.NoError(t, err)

	// With one validator the consensus is its own opinion and nothing clips.
	require.InDelta(t, 0.3, res.Consensus[0], types.SumTolerance)
	require.InDelta(t, 0.7, res.Consensus[1], types.SumTolerance)
	require.InDelta(t, 0.3, res.Clipped.At(0, 0), types.SumTolerance)
	require.InDelta(t, 0.7, res.Clipped.At(0, 1), types.SumTolerance)
	require.InDelta(t, 0.3, res.Incentive[0], types.SumTolerance)
	require.InDelta(t, 0.7, res.Incentive[1], types.SumTolerance)
}

func TestComputeConsensusRank(t *testing.T) {
	// Two equal-stake validators: rank is the mean opinion.
	weights := weightsFromRows(t, [][]float64{{1, 0}, {0, 1}})
	res, err := ComputeConsensus(validatorsWithStakes(50, 50), weights, 0.5)
	require.NoError(t, err)
	require.InDelta(t, 0.5, res.Rank[0], types.SumTolerance)
	require.InDelta(t, 0.5, res.Rank[1], types.SumTolerance)
}

func TestComputeConsensusTrustBreadth(t *testing.T) {
	// Miner 0 is vouched for by all stake, miner 1 by a third, miner 2 by none.
	weights := weightsFromRows(t, [][]float64{
		{0.5, 0.5, 0},
		{1, 0, 0},
		{1, 0, 0},
	})
	res, err := ComputeConsensus(validatorsWithStakes(100, 100, 100), weights, 0.5)
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.Trust[0], types.SumTolerance)
	require.InDelta(t, 1.0/3, res.Trust[1], types.SumTolerance)
	require.InDelta(t, 0.0, res.Trust[2], types.SumTolerance)
}

func TestStakeWeightedMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		share  []float64
		want   float64
	}{
		{"uniform shares", []float64{0.1, 0.5, 0.9}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, 0.5},
		{"heavy validator dominates", []float64{0.1, 0.5, 0.9}, []float64{0.6, 0.2, 0.2}, 0.1},
		{"single validator", []float64{0.42}, []float64{1}, 0.42},
		{"two equal halves takes lower", []float64{0.2, 0.8}, []float64{0.5, 0.5}, 0.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, stakeWeightedMedian(tc.values, tc.share), types.SumTolerance)
		})
	}
}

func TestDivergentWeightsAreClipped(t *testing.T) {
	// Three equal-stake validators disagree wildly about miner 0. The
	// consensus-clipped rank must stay below the stake-weighted median
	// times (1 + kappa).
	kappa := 0.5
	weights := weightsFromRows(t, [][]float64{
		{1, 0},
		{0.1, 0.9},
		{0.05, 0.95},
	})
	res, err := ComputeConsensus(validatorsWithStakes(100, 100, 100), weights, kappa)
	require.NoError(t, err)

	median := stakeWeightedMedian([]float64{1, 0.1, 0.05}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	require.InDelta(t, 0.1, median, types.SumTolerance)
	require.InDelta(t, median, res.Consensus[0], types.SumTolerance)

	clippedRank := 0.0
	for i := 0; i < 3; i++ {
		require.LessOrEqual(t, res.Clipped.At(i, 0), median*(1+kappa)+types.SumTolerance)
		clippedRank += res.Clipped.At(i, 0) / 3
	}
	require.LessOrEqual(t, clippedRank, median*(1+kappa)+types.SumTolerance)

	// The outlier validator got clipped; the aligned ones did not.
	require.InDelta(t, median*(1+kappa), res.Clipped.At(0, 0), types.SumTolerance)
	require.InDelta(t, 0.1, res.Clipped.At(1, 0), types.SumTolerance)
	require.InDelta(t, 0.05, res.Clipped.At(2, 0), types.SumTolerance)
}

func TestIncentiveSumsToOne(t *testing.T) {
	weights := weightsFromRows(t, [][]float64{
		{0.2, 0.3, 0.5},
		{0.6, 0.2, 0.2},
	})
	res, err := ComputeConsensus(validatorsWithStakes(10, 30), weights, 0.5)
	require.NoError(t, err)
	sum := 0.0
	for _, v := range res.Incentive {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
		sum += v
	}
	require.InDelta(t, 1.0, sum, types.SumTolerance)
}

func TestAllAbstainYieldsZeroIncentive(t *testing.T) {
	weights := types.NewWeightMatrix(2, 3)
	res, err := ComputeConsensus(validatorsWithStakes(10, 10), weights, 0.5)
	require.NoError(t, err)
	for _, v := range res.Incentive {
		require.Equal(t, 0.0, v)
	}
}
