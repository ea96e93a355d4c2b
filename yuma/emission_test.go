package yuma

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dtaolabs/subnetsim/simerrors"
	"github.com/dtaolabs/subnetsim/types"
)

func TestAllocateSplitsBudget(t *testing.T) {
	allocator := NewEmissionAllocator(100, 0.5)
	miners := []types.Miner{{ID: 0, Stake: 10}, {ID: 1, Stake: 20}}
	validators := []types.Validator{{ID: 0, Stake: 1000}}

	newMiners, newValidators, minerTotal, validatorTotal, err := allocator.Allocate(
		miners, validators, []float64{0.25, 0.75}, []float64{1})
	require.NoError(t, err)

	require.InDelta(t, 50.0, minerTotal, types.SumTolerance)
	require.InDelta(t, 50.0, validatorTotal, types.SumTolerance)
	require.InDelta(t, 10+12.5, newMiners[0].Stake, types.SumTolerance)
	require.InDelta(t, 20+37.5, newMiners[1].Stake, types.SumTolerance)
	require.InDelta(t, 1050.0, newValidators[0].Stake, types.SumTolerance)
	require.InDelta(t, 12.5, newMiners[0].Emission, types.SumTolerance)
	require.InDelta(t, 1.0, newValidators[0].Dividend, types.SumTolerance)

	// Inputs are never mutated.
	require.Equal(t, 10.0, miners[0].Stake)
	require.Equal(t, 1000.0, validators[0].Stake)
}

func TestAllocateZeroIncentiveMintsNothing(t *testing.T) {
	allocator := NewEmissionAllocator(100, 0.5)
	miners := []types.Miner{{ID: 0, Stake: 10}}
	validators := []types.Validator{{ID: 0, Stake: 1000}}

	newMiners, newValidators, minerTotal, validatorTotal, err := allocator.Allocate(
		miners, validators, []float64{0}, []float64{0})
	require.NoError(t, err)
	require.Equal(t, 0.0, minerTotal)
	require.Equal(t, 0.0, validatorTotal)
	require.Equal(t, 10.0, newMiners[0].Stake)
	require.Equal(t, 1000.0, newValidators[0].Stake)
}

func TestAllocateUnevenSplit(t *testing.T) {
	allocator := NewEmissionAllocator(200, 0.75)
	miners := []types.Miner{{ID: 0}}
	validators := []types.Validator{{ID: 0, Stake: 1}}

	_, _, minerTotal, validatorTotal, err := allocator.Allocate(
		miners, validators, []float64{1}, []float64{1})
	require.NoError(t, err)
	require.InDelta(t, 150.0, minerTotal, types.SumTolerance)
	require.InDelta(t, 50.0, validatorTotal, types.SumTolerance)
}

func TestAllocateDetectsConservationViolation(t *testing.T) {
	allocator := NewEmissionAllocator(100, 0.5)
	miners := []types.Miner{{ID: 0}}
	validators := []types.Validator{{ID: 0, Stake: 1}}

	// An incentive vector that does not sum to one is an upstream invariant
	// failure; the allocator must refuse to commit the epoch.
	_, _, _, _, err := allocator.Allocate(miners, validators, []float64{0.5}, []float64{1})
	require.ErrorIs(t, err, simerrors.ErrEmissionConservation)
}
