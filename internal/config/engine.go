package config

import (
	"fmt"
	"time"
)

// EngineConfig holds the tunable constants of the adaptive engine
type EngineConfig struct {
	MaxExposures        int     `env:"ENGINE_MAX_EXPOSURES" envDefault:"20"`
	MinExposures        int     `env:"ENGINE_MIN_EXPOSURES" envDefault:"5"`
	ConfidenceThreshold float64 `env:"ENGINE_CONFIDENCE_THRESHOLD" envDefault:"0.15"`
	InitialVariance     float64 `env:"ENGINE_INITIAL_VARIANCE" envDefault:"1.0"`
	VarianceDecay       float64 `env:"ENGINE_VARIANCE_DECAY" envDefault:"0.85"`
	VarianceFloor       float64 `env:"ENGINE_VARIANCE_FLOOR" envDefault:"0.05"`
	CoverageWeight      float64 `env:"ENGINE_COVERAGE_WEIGHT" envDefault:"0.1"`

	CandidateCacheTTL time.Duration `env:"ENGINE_CANDIDATE_CACHE_TTL" envDefault:"5m"`
}

// DefaultEngineConfig returns the engine defaults
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxExposures:        20,
		MinExposures:        5,
		ConfidenceThreshold: 0.15,
		InitialVariance:     1.0,
		VarianceDecay:       0.85,
		VarianceFloor:       0.05,
		CoverageWeight:      0.1,
		CandidateCacheTTL:   5 * time.Minute,
	}
}

func loadEngineConfig() EngineConfig {
	d := DefaultEngineConfig()
	return EngineConfig{
		MaxExposures:        getEnvInt("ENGINE_MAX_EXPOSURES", d.MaxExposures),
		MinExposures:        getEnvInt("ENGINE_MIN_EXPOSURES", d.MinExposures),
		ConfidenceThreshold: getEnvFloat("ENGINE_CONFIDENCE_THRESHOLD", d.ConfidenceThreshold),
		InitialVariance:     getEnvFloat("ENGINE_INITIAL_VARIANCE", d.InitialVariance),
		VarianceDecay:       getEnvFloat("ENGINE_VARIANCE_DECAY", d.VarianceDecay),
		VarianceFloor:       getEnvFloat("ENGINE_VARIANCE_FLOOR", d.VarianceFloor),
		CoverageWeight:      getEnvFloat("ENGINE_COVERAGE_WEIGHT", d.CoverageWeight),
		CandidateCacheTTL:   getEnvDuration("ENGINE_CANDIDATE_CACHE_TTL", d.CandidateCacheTTL),
	}
}

// Validate rejects settings that would break variance monotonicity or
// termination.
func (c EngineConfig) Validate() error {
	if c.MaxExposures < 1 {
		return fmt.Errorf("engine max exposures must be at least 1, got %d", c.MaxExposures)
	}
	if c.MinExposures < 0 || c.MinExposures > c.MaxExposures {
		return fmt.Errorf("engine min exposures must be between 0 and %d, got %d", c.MaxExposures, c.MinExposures)
	}
	if c.InitialVariance <= 0 {
		return fmt.Errorf("engine initial variance must be positive, got %v", c.InitialVariance)
	}
	if c.VarianceDecay <= 0 || c.VarianceDecay > 1 {
		return fmt.Errorf("engine variance decay must be in (0, 1], got %v", c.VarianceDecay)
	}
	if c.VarianceFloor < 0 || c.VarianceFloor > c.InitialVariance {
		return fmt.Errorf("engine variance floor must be between 0 and the initial variance, got %v", c.VarianceFloor)
	}
	if c.ConfidenceThreshold < 0 {
		return fmt.Errorf("engine confidence threshold cannot be negative, got %v", c.ConfidenceThreshold)
	}
	if c.CoverageWeight < 0 {
		return fmt.Errorf("engine coverage weight cannot be negative, got %v", c.CoverageWeight)
	}
	return nil
}
