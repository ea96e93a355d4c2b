package types

import (
	"math"
	"sort"
)

// Summary is the terminal report handed to the visualization layer once a
// run ends (or is cancelled with a committed prefix).
type Summary struct {
	ScenarioHash     string    `json:"scenario_hash"`
	EpochsCommitted  int       `json:"epochs_committed"`
	Status           string    `json:"status"`
	FinalMinerStakes []float64 `json:"final_miner_stakes"`
	FinalValStakes   []float64 `json:"final_validator_stakes"`
	TotalEmitted     float64   `json:"total_emitted"`

	// Concentration of the final miner stake distribution.
	Herfindahl float64 `json:"herfindahl"`
	Gini       float64 `json:"gini"`
}

// NewSummary derives the terminal summary from a committed history. The
// history may be the cancelled prefix of a longer scenario.
func NewSummary(cfg *ScenarioConfig, history []EpochState, status string) *Summary {
	s := &Summary{
		ScenarioHash: cfg.Hash().Hex(),
		Status:       status,
	}
	if len(history) == 0 {
		return s
	}
	last := &history[len(history)-1]
	s.EpochsCommitted = last.Epoch
	s.FinalMinerStakes = make([]float64, len(last.Miners))
	for i := range last.Miners {
		s.FinalMinerStakes[i] = last.Miners[i].Stake
	}
	s.FinalValStakes = make([]float64, len(last.Validators))
	for i := range last.Validators {
		s.FinalValStakes[i] = last.Validators[i].Stake
	}
	for i := range history {
		s.TotalEmitted += history[i].MinerEmission + history[i].ValidatorEmission
	}
	s.Herfindahl = herfindahl(s.FinalMinerStakes)
	s.Gini = gini(s.FinalMinerStakes)
	return s
}

// herfindahl is the sum of squared stake shares: 1/n for a uniform
// distribution, 1 for full concentration.
func herfindahl(stakes []float64) float64 {
	total := 0.0
	for _, s := range stakes {
		total += s
	}
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, s := range stakes {
		share := s / total
		h += share * share
	}
	return h
}

func gini(stakes []float64) float64 {
	n := len(stakes)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), stakes...)
	sort.Float64s(sorted)
	total := 0.0
	weighted := 0.0
	for i, s := range sorted {
		total += s
		weighted += float64(i+1) * s
	}
	if total == 0 {
		return 0
	}
	g := (2*weighted)/(float64(n)*total) - float64(n+1)/float64(n)
	return math.Max(g, 0)
}
