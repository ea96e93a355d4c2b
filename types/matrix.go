package types

import (
	"fmt"
	"math"

	"github.com/dtaolabs/subnetsim/simerrors"
)

// WeightMatrix holds one epoch's validator opinions: rows are validators,
// columns are miners. Every row is either normalized (entries in [0,1]
// summing to 1 within SumTolerance) or the all-zero abstain vector.
type WeightMatrix struct {
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Entries [][]float64 `json:"entries"`
}

// NewWeightMatrix returns an all-zero (all-abstain) matrix.
func NewWeightMatrix(rows, cols int) WeightMatrix {
	entries := make([][]float64, rows)
	for i := range entries {
		entries[i] = make([]float64, cols)
	}
	return WeightMatrix{Rows: rows, Cols: cols, Entries: entries}
}

// WeightMatrixFromRows validates shape and row invariants at construction.
func WeightMatrixFromRows(rows [][]float64, cols int) (WeightMatrix, error) {
	m := WeightMatrix{Rows: len(rows), Cols: cols, Entries: rows}
	if err := m.Validate(); err != nil {
		return WeightMatrix{}, err
	}
	return m, nil
}

func (m *WeightMatrix) At(i, j int) float64 { return m.Entries[i][j] }

// Row returns a copy of validator i's opinion vector.
func (m *WeightMatrix) Row(i int) []float64 {
	out := make([]float64, m.Cols)
	copy(out, m.Entries[i])
	return out
}

// IsAbstain reports whether validator i's row is the all-zero abstain vote.
func (m *WeightMatrix) IsAbstain(i int) bool {
	for _, w := range m.Entries[i] {
		if w != 0 {
			return false
		}
	}
	return true
}

func (m *WeightMatrix) Copy() WeightMatrix {
	out := NewWeightMatrix(m.Rows, m.Cols)
	for i := range m.Entries {
		copy(out.Entries[i], m.Entries[i])
	}
	return out
}

// Validate checks shape and the per-row normalization invariant.
func (m *WeightMatrix) Validate() error {
	if len(m.Entries) != m.Rows {
		return fmt.Errorf("%w rows=%d entries=%d", simerrors.ErrWeightMatrixShape, m.Rows, len(m.Entries))
	}
	for i, row := range m.Entries {
		if len(row) != m.Cols {
			return fmt.Errorf("%w row=%d len=%d cols=%d", simerrors.ErrWeightMatrixShape, i, len(row), m.Cols)
		}
		sum := 0.0
		for j, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("%w row=%d col=%d", simerrors.ErrWeightNotFinite, i, j)
			}
			if w < 0 || w > 1 {
				return fmt.Errorf("%w row=%d col=%d w=%g", simerrors.ErrInvalidWeight, i, j, w)
			}
			sum += w
		}
		if sum != 0 && math.Abs(sum-1) > SumTolerance {
			return fmt.Errorf("%w row=%d sum=%g", simerrors.ErrWeightRowSum, i, sum)
		}
	}
	return nil
}

// BondsMatrix has the same shape as WeightMatrix; entries are the
// exponential moving average of clipped weights and stay in [0,1].
type BondsMatrix struct {
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Entries [][]float64 `json:"entries"`
}

// NewBondsMatrix returns the zero bonds of epoch 0.
func NewBondsMatrix(rows, cols int) BondsMatrix {
	entries := make([][]float64, rows)
	for i := range entries {
		entries[i] = make([]float64, cols)
	}
	return BondsMatrix{Rows: rows, Cols: cols, Entries: entries}
}

func (b *BondsMatrix) At(i, j int) float64 { return b.Entries[i][j] }

// Row returns a copy of validator i's bonds vector.
func (b *BondsMatrix) Row(i int) []float64 {
	out := make([]float64, b.Cols)
	copy(out, b.Entries[i])
	return out
}

func (b *BondsMatrix) Copy() BondsMatrix {
	out := NewBondsMatrix(b.Rows, b.Cols)
	for i := range b.Entries {
		copy(out.Entries[i], b.Entries[i])
	}
	return out
}

// Validate checks shape and the [0,1] entry domain.
func (b *BondsMatrix) Validate() error {
	if len(b.Entries) != b.Rows {
		return fmt.Errorf("%w bonds rows=%d entries=%d", simerrors.ErrWeightMatrixShape, b.Rows, len(b.Entries))
	}
	for i, row := range b.Entries {
		if len(row) != b.Cols {
			return fmt.Errorf("%w bonds row=%d len=%d cols=%d", simerrors.ErrWeightMatrixShape, i, len(row), b.Cols)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
				return fmt.Errorf("%w bonds row=%d col=%d v=%g", simerrors.ErrInvalidWeight, i, j, v)
			}
		}
	}
	return nil
}
