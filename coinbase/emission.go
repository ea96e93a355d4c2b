// Package coinbase reproduces the network-level emission schedule the
// subnet draws from: the issuance-halving block emission curve, tempo-based
// epoch timing, the subnet owner cut, and the pending pool that accumulates
// between epochs.
package coinbase

import (
	"math"

	"github.com/dtaolabs/subnetsim/log"
)

// Figures are in rao (1 TAO = 1e9 rao).
const (
	TotalSupplyRao          = 21_000_000_000_000_000.0
	HalfSupplyRao           = 10_500_000_000_000_000.0
	DefaultBlockEmissionRao = 1_000_000_000.0

	// DefaultOwnerCut is the subnet owner's share of alpha emission,
	// deducted before validators and miners are paid.
	DefaultOwnerCut = 0.18

	// DefaultTempoBlocks is the number of blocks per subnet epoch.
	DefaultTempoBlocks = 360
)

// BlockEmission returns the per-block emission at a given total issuance,
// following the logarithmic-residual halving curve: emission halves every
// time the log2 residual of remaining supply crosses an integer.
func BlockEmission(issuanceRao float64) float64 {
	if issuanceRao >= TotalSupplyRao {
		return 0
	}
	denominator := 1 - issuanceRao/(2*HalfSupplyRao)
	if denominator <= 0 {
		return 0
	}
	residual := math.Log2(1 / denominator)
	multiplier := math.Pow(2, math.Floor(residual))
	return DefaultBlockEmissionRao / multiplier
}

// BlocksUntilNextEpoch returns how many blocks remain before subnet netuid's
// next epoch boundary: the boundary is where (block + netuid + 1) divides
// evenly by (tempo + 1). A zero result means block is itself the boundary.
func BlocksUntilNextEpoch(netuid, tempo, block int) int {
	if tempo == 0 {
		return math.MaxInt // epochs never run
	}
	remainder := (block + netuid + 1) % (tempo + 1)
	if remainder == 0 {
		return 0
	}
	return tempo + 1 - remainder
}

// ShouldRunEpoch reports whether block is subnet netuid's epoch boundary.
func ShouldRunEpoch(netuid, tempo, block int) bool {
	return BlocksUntilNextEpoch(netuid, tempo, block) == 0
}

// Schedule accumulates per-block emission into a pending pool and drains it
// at each tempo boundary, after the owner cut.
type Schedule struct {
	NetUID      int
	TempoBlocks int
	OwnerCut    float64

	issuanceRao     float64
	pendingEmission float64
	pendingOwnerCut float64
}

func NewSchedule(netuid, tempo int, ownerCut float64) *Schedule {
	return &Schedule{NetUID: netuid, TempoBlocks: tempo, OwnerCut: ownerCut}
}

// Issuance returns the running total issuance in rao.
func (s *Schedule) Issuance() float64 { return s.issuanceRao }

// Pending returns the undrained emission and owner-cut pools.
func (s *Schedule) Pending() (emission, ownerCut float64) {
	return s.pendingEmission, s.pendingOwnerCut
}

// AccumulateBlock mints one block's emission into the pending pools and
// advances issuance.
func (s *Schedule) AccumulateBlock() float64 {
	emission := BlockEmission(s.issuanceRao)
	cut := emission * s.OwnerCut
	s.pendingEmission += emission - cut
	s.pendingOwnerCut += cut
	s.issuanceRao += emission
	return emission
}

// Drain empties the pending pools at an epoch boundary, returning the
// participant share and the owner share. Draining off-boundary returns
// zeros and leaves the pools intact.
func (s *Schedule) Drain(block int) (participantShare, ownerShare float64) {
	if !ShouldRunEpoch(s.NetUID, s.TempoBlocks, block) {
		return 0, 0
	}
	participantShare = s.pendingEmission
	ownerShare = s.pendingOwnerCut
	s.pendingEmission = 0
	s.pendingOwnerCut = 0
	log.Debug(log.EmissionMonitoring, "pending emission drained",
		"block", block, "participants", participantShare, "owner", ownerShare)
	return participantShare, ownerShare
}

// EpochBudgetTao simulates one tempo of blocks from the given issuance and
// returns the participant emission for that epoch in TAO. The CLI uses this
// to derive a scenario's emission_per_epoch from network parameters instead
// of a fixed figure.
func EpochBudgetTao(issuanceRao float64, tempo int, ownerCut float64) float64 {
	s := &Schedule{NetUID: 0, TempoBlocks: tempo, OwnerCut: ownerCut, issuanceRao: issuanceRao}
	for b := 0; b < tempo; b++ {
		s.AccumulateBlock()
	}
	return s.pendingEmission / 1e9
}
