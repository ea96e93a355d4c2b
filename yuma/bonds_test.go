package yuma

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dtaolabs/subnetsim/types"
)

func TestBondsUpdateEMA(t *testing.T) {
	tracker := NewBondsTracker(0.1)
	prev := types.NewBondsMatrix(1, 2)
	prev.Entries[0][0] = 0.5

	clipped := types.NewWeightMatrix(1, 2)
	clipped.Entries[0][0] = 1
	clipped.Entries[0][1] = 0.2

	next := tracker.Update(prev, clipped)
	require.InDelta(t, 0.5*0.9+0.1*1, next.At(0, 0), types.SumTolerance)
	require.InDelta(t, 0.1*0.2, next.At(0, 1), types.SumTolerance)

	// prev is untouched.
	require.Equal(t, 0.5, prev.At(0, 0))
}

func TestBondsStayBounded(t *testing.T) {
	// Convex combinations of [0,1] inputs never escape [0,1], for any
	// alpha in (0,1] and any clipped-weight sequence.
	rng := rand.New(rand.NewSource(7))
	for _, alpha := range []float64{0.01, 0.5, 1} {
		tracker := NewBondsTracker(alpha)
		bonds := types.NewBondsMatrix(2, 3)
		for step := 0; step < 200; step++ {
			clipped := types.NewWeightMatrix(2, 3)
			for i := 0; i < 2; i++ {
				for j := 0; j < 3; j++ {
					clipped.Entries[i][j] = rng.Float64()
				}
			}
			bonds = tracker.Update(bonds, clipped)
			require.NoError(t, bonds.Validate())
		}
	}
}

func TestBondsAlphaOneTracksInstantly(t *testing.T) {
	tracker := NewBondsTracker(1)
	prev := types.NewBondsMatrix(1, 1)
	prev.Entries[0][0] = 0.9
	clipped := types.NewWeightMatrix(1, 1)
	clipped.Entries[0][0] = 0.25
	next := tracker.Update(prev, clipped)
	require.InDelta(t, 0.25, next.At(0, 0), types.SumTolerance)
}

func TestDividendsNormalized(t *testing.T) {
	bonds := types.NewBondsMatrix(2, 2)
	bonds.Entries[0][0] = 0.8
	bonds.Entries[1][0] = 0.2
	bonds.Entries[1][1] = 0.5

	dividends := Dividends(bonds, []float64{1, 0})
	require.InDelta(t, 0.8, dividends[0], types.SumTolerance)
	require.InDelta(t, 0.2, dividends[1], types.SumTolerance)
}

func TestDividendsZeroWhenNoAlignment(t *testing.T) {
	bonds := types.NewBondsMatrix(2, 2)
	dividends := Dividends(bonds, []float64{0.5, 0.5})
	require.Equal(t, []float64{0, 0}, dividends)
}
