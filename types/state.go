package types

// Miner is a participant rewarded for work quality as judged by validator
// weights. All per-epoch figures (rank, trust, consensus, incentive,
// emission) describe the epoch the containing EpochState was committed at.
type Miner struct {
	ID        uint32  `json:"id"`
	Stake     float64 `json:"stake"`
	Rank      float64 `json:"rank"`
	Trust     float64 `json:"trust"`
	Consensus float64 `json:"consensus"`
	Incentive float64 `json:"incentive"`
	Emission  float64 `json:"emission"`
}

// Validator assigns weight over miners and is rewarded for alignment with
// consensus. Weights and Bonds are row copies of the epoch matrices, kept on
// the record for the convenience of consumers that read one participant at a
// time.
type Validator struct {
	ID       uint32    `json:"id"`
	Stake    float64   `json:"stake"`
	Weights  []float64 `json:"weights"`
	Bonds    []float64 `json:"bonds"`
	Dividend float64   `json:"dividend"`
	Emission float64   `json:"emission"`
}

// EpochState is the immutable snapshot of one committed epoch. Epoch 0 is
// the seeded genesis (zero bonds, all-abstain weights); each later state is
// produced by a pure transition of the previous one and is never mutated.
type EpochState struct {
	Epoch      int          `json:"epoch"`
	Miners     []Miner      `json:"miners"`
	Validators []Validator  `json:"validators"`
	Weights    WeightMatrix `json:"weights"`
	Bonds      BondsMatrix  `json:"bonds"`

	// Aggregate emission actually distributed this epoch.
	MinerEmission     float64 `json:"miner_emission"`
	ValidatorEmission float64 `json:"validator_emission"`
}

// TotalValidatorStake sums validator stake for the snapshot.
func (s *EpochState) TotalValidatorStake() float64 {
	total := 0.0
	for i := range s.Validators {
		total += s.Validators[i].Stake
	}
	return total
}

// TotalMinerStake sums miner stake for the snapshot.
func (s *EpochState) TotalMinerStake() float64 {
	total := 0.0
	for i := range s.Miners {
		total += s.Miners[i].Stake
	}
	return total
}

func (s *EpochState) Copy() *EpochState {
	out := &EpochState{
		Epoch:             s.Epoch,
		Miners:            make([]Miner, len(s.Miners)),
		Validators:        make([]Validator, len(s.Validators)),
		Weights:           s.Weights.Copy(),
		Bonds:             s.Bonds.Copy(),
		MinerEmission:     s.MinerEmission,
		ValidatorEmission: s.ValidatorEmission,
	}
	copy(out.Miners, s.Miners)
	for i := range s.Validators {
		v := s.Validators[i]
		v.Weights = append([]float64(nil), v.Weights...)
		v.Bonds = append([]float64(nil), v.Bonds...)
		out.Validators[i] = v
	}
	return out
}
