package yuma

import (
	"fmt"
	"math"

	"github.com/dtaolabs/subnetsim/simerrors"
	"github.com/dtaolabs/subnetsim/types"
)

// EmissionAllocator splits the fixed per-epoch budget between the miner and
// validator pools and applies stake deltas under a conservation check.
type EmissionAllocator struct {
	budget     float64 // emission per epoch
	splitRatio float64 // miner pool share
}

func NewEmissionAllocator(budget, splitRatio float64) *EmissionAllocator {
	return &EmissionAllocator{budget: budget, splitRatio: splitRatio}
}

// Allocate returns updated participant records with this epoch's emission
// applied. Inputs are never mutated; on a conservation failure nothing is
// committed and the epoch must be aborted.
//
// A pool whose reward vector sums to zero (every miner unweighted, or no
// validator bonded to any incentive) mints nothing: the conservation law is
// checked against the distributable total, so an all-abstain epoch emits
// zero and is still valid.
func (a *EmissionAllocator) Allocate(miners []types.Miner, validators []types.Validator, incentive, dividends []float64) ([]types.Miner, []types.Validator, float64, float64, error) {
	minerPool := a.budget * a.splitRatio
	validatorPool := a.budget * (1 - a.splitRatio)

	incentiveSum := 0.0
	for _, v := range incentive {
		incentiveSum += v
	}
	dividendSum := 0.0
	for _, v := range dividends {
		dividendSum += v
	}

	distributable := 0.0
	if incentiveSum > 0 {
		distributable += minerPool
	}
	if dividendSum > 0 {
		distributable += validatorPool
	}

	newMiners := make([]types.Miner, len(miners))
	minerTotal := 0.0
	for j := range miners {
		m := miners[j]
		delta := 0.0
		if incentiveSum > 0 {
			delta = incentive[j] * minerPool
		}
		m.Stake += delta
		m.Emission = delta
		minerTotal += delta
		newMiners[j] = m
	}

	newValidators := make([]types.Validator, len(validators))
	validatorTotal := 0.0
	for i := range validators {
		v := validators[i]
		delta := 0.0
		if dividendSum > 0 {
			delta = dividends[i] * validatorPool
		}
		v.Stake += delta
		v.Dividend = dividends[i]
		v.Emission = delta
		validatorTotal += delta
		newValidators[i] = v
	}

	applied := minerTotal + validatorTotal
	if math.Abs(applied-distributable) > conservationTolerance(a.budget) {
		return nil, nil, 0, 0, fmt.Errorf("%w applied=%g distributable=%g budget=%g",
			simerrors.ErrEmissionConservation, applied, distributable, a.budget)
	}
	return newMiners, newValidators, minerTotal, validatorTotal, nil
}

// conservationTolerance scales the absolute epsilon with the budget so large
// emission figures do not trip the check on rounding alone.
func conservationTolerance(budget float64) float64 {
	return types.SumTolerance * math.Max(1, budget)
}
