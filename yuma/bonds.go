package yuma

import (
	"github.com/dtaolabs/subnetsim/types"
)

// BondsTracker maintains the exponential moving average of clipped weights.
// Alpha in (0,1] makes every update a convex combination, so bonds stay in
// [0,1] whenever clipped weights do.
type BondsTracker struct {
	alpha float64
}

func NewBondsTracker(alpha float64) *BondsTracker {
	return &BondsTracker{alpha: alpha}
}

// Update returns the next bonds matrix without touching prev:
// bonds' = bonds*(1-alpha) + alpha*clipped.
func (t *BondsTracker) Update(prev types.BondsMatrix, clipped types.WeightMatrix) types.BondsMatrix {
	next := types.NewBondsMatrix(prev.Rows, prev.Cols)
	for i := 0; i < prev.Rows; i++ {
		for j := 0; j < prev.Cols; j++ {
			next.Entries[i][j] = prev.At(i, j)*(1-t.alpha) + t.alpha*clipped.At(i, j)
		}
	}
	return next
}

// Dividends scores each validator by the dot product of its bonds row with
// the incentive vector, normalized to sum to one across validators. If no
// validator holds any incentive-aligned bonds the result is all zero.
func Dividends(bonds types.BondsMatrix, incentive []float64) []float64 {
	out := make([]float64, bonds.Rows)
	total := 0.0
	for i := 0; i < bonds.Rows; i++ {
		dot := 0.0
		for j := 0; j < bonds.Cols; j++ {
			dot += bonds.At(i, j) * incentive[j]
		}
		out[i] = dot
		total += dot
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}
