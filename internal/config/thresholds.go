package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Thresholds are the tunable constants of the occupancy model. Values are
// copied into the aggregator and insight engine at construction.
type Thresholds struct {
	// Recency weighting: weight = max(FloorWeight, DecayRate^months)
	DecayRate   float64 `yaml:"decay_rate"`
	FloorWeight float64 `yaml:"floor_weight"`

	// Buckets with this many raw observations or fewer flag their group as low-data
	LowObservationThreshold int `yaml:"low_observation_threshold"`

	// A bin is "typically full" at or above this probability
	FullProbabilityThreshold float64 `yaml:"full_probability_threshold"`

	// Recovery needs both at least RecoverySpots available and a full probability below RecoveryProbability
	RecoverySpots       float64 `yaml:"recovery_spots"`
	RecoveryProbability float64 `yaml:"recovery_probability"`

	// Two-sided confidence level for the availability band
	ConfidenceLevel float64 `yaml:"confidence_level"`

	// Empty-time label used when a full facility never recovers in the observed window
	LateLabel string `yaml:"late_label"`
}

// DefaultThresholds returns the production tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DecayRate:                0.96,
		FloorWeight:              0.05,
		LowObservationThreshold:  5,
		FullProbabilityThreshold: 0.80,
		RecoverySpots:            10,
		RecoveryProbability:      0.20,
		ConfidenceLevel:          0.99,
		LateLabel:                "After 10:00 PM",
	}
}

// Validate checks that every threshold is in range.
func (t Thresholds) Validate() error {
	if t.DecayRate <= 0 || t.DecayRate > 1 {
		return fmt.Errorf("decay_rate must be in (0, 1], got %g", t.DecayRate)
	}
	if t.FloorWeight <= 0 || t.FloorWeight > 1 {
		return fmt.Errorf("floor_weight must be in (0, 1], got %g", t.FloorWeight)
	}
	if t.LowObservationThreshold < 0 {
		return fmt.Errorf("low_observation_threshold must be non-negative, got %d", t.LowObservationThreshold)
	}
	if t.FullProbabilityThreshold <= 0 || t.FullProbabilityThreshold > 1 {
		return fmt.Errorf("full_probability_threshold must be in (0, 1], got %g", t.FullProbabilityThreshold)
	}
	if t.RecoverySpots < 0 {
		return fmt.Errorf("recovery_spots must be non-negative, got %g", t.RecoverySpots)
	}
	if t.RecoveryProbability < 0 || t.RecoveryProbability > 1 {
		return fmt.Errorf("recovery_probability must be in [0, 1], got %g", t.RecoveryProbability)
	}
	if t.ConfidenceLevel <= 0 || t.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidence_level must be in (0, 1), got %g", t.ConfidenceLevel)
	}
	if t.LateLabel == "" {
		return fmt.Errorf("late_label must not be empty")
	}
	return nil
}

// LoadTuning overlays a YAML tuning file onto base. Keys absent from the
// file keep their base values.
func LoadTuning(path string, base Thresholds) (Thresholds, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return base, fmt.Errorf("tuning file must have .yaml or .yml extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return base, fmt.Errorf("failed to read tuning file: %w", err)
	}

	out := base
	if err := yaml.Unmarshal(data, &out); err != nil {
		return base, fmt.Errorf("failed to parse tuning YAML: %w", err)
	}
	if err := out.Validate(); err != nil {
		return base, fmt.Errorf("invalid tuning: %w", err)
	}
	return out, nil
}
