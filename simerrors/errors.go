package simerrors

import (
	"errors"
	"strings"
)

// Configuration (C) Errors - raised during pre-flight validation, before any epoch runs.
var (
	ErrConfiguration            = errors.New("C1|ConfigurationError: Scenario parameters are invalid.")
	ErrConfigNoValidators       = errors.New("C2|ConfigurationError: validator_count must be at least 1.")
	ErrConfigNoMiners           = errors.New("C3|ConfigurationError: miner_count must be at least 1.")
	ErrConfigBadEpochCount      = errors.New("C4|ConfigurationError: epoch_count must be at least 1.")
	ErrConfigBadBondsAlpha      = errors.New("C5|ConfigurationError: bonds_alpha must lie in (0,1].")
	ErrConfigBadEmission        = errors.New("C6|ConfigurationError: emission_per_epoch must be non-negative.")
	ErrConfigBadSplitRatio      = errors.New("C7|ConfigurationError: emission_split_ratio must lie in [0,1].")
	ErrConfigBadKappa           = errors.New("C8|ConfigurationError: consensus_kappa must be non-negative.")
	ErrConfigBadStakes          = errors.New("C9|ConfigurationError: explicit stake seeding does not match population sizes or contains negative stake.")
	ErrConfigUnknownStrategy    = errors.New("C10|ConfigurationError: unknown weight strategy.")
	ErrConfigUnknownSeeding     = errors.New("C11|ConfigurationError: unknown stake seeding mode.")
)

// Weight (W) Errors - raised while building or normalizing a weight matrix.
var (
	ErrInvalidWeight      = errors.New("W1|InvalidWeightError: A weight row contains a value outside the strategy's declared domain.")
	ErrWeightNotFinite    = errors.New("W2|InvalidWeightError: A weight entry is NaN or infinite.")
	ErrWeightMatrixShape  = errors.New("W3|InvalidWeightError: Weight matrix shape does not match the validator/miner populations.")
	ErrWeightRowSum       = errors.New("W4|InvalidWeightError: A normalized weight row does not sum to one.")
)

// State (S) Errors - raised during an epoch's consensus computation.
var (
	ErrDegenerateState   = errors.New("S1|DegenerateStateError: Total validator stake is zero, consensus is undefined.")
	ErrStateShape        = errors.New("S2|DegenerateStateError: Epoch state shape does not match the scenario populations.")
	ErrRunAlreadyStarted = errors.New("S3|RunAlreadyStartedError: A simulation run is not restartable; re-create it from the scenario.")
)

// Emission (E) Errors - raised while applying stake deltas.
var (
	ErrEmissionConservation = errors.New("E1|EmissionConservationError: Applied stake deltas do not sum to the epoch emission budget.")
)

// Store (K) Errors - raised by the keyed run store.
var (
	ErrRunNotFound  = errors.New("K1|RunNotFoundError: No run is stored under the given scenario hash.")
	ErrRunCorrupted = errors.New("K2|RunCorruptedError: Stored run bytes failed to decode.")
)

// GetErrorName extracts the error name from the "CODE|Name: description" convention.
func GetErrorName(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	nameParts := strings.SplitN(parts[1], ":", 2)
	if len(nameParts) < 1 {
		return errStr
	}
	return strings.TrimSpace(nameParts[0])
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(err.Error(), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}

// IsConfiguration reports whether err belongs to the configuration taxonomy.
func IsConfiguration(err error) bool {
	return GetErrorCode(err) != "" && strings.HasPrefix(GetErrorCode(err), "C")
}
