package observation

import (
	"context"
	"time"
)

// Observation is a single occupancy reading for one facility.
type Observation struct {
	FacilityID   string
	FacilityName string
	ObservedAt   time.Time
	Available    *int // nil when the sensor did not report
}

// Valid reports whether the reading can be aggregated.
func (o Observation) Valid() bool {
	return o.Available != nil && *o.Available >= 0 && !o.ObservedAt.IsZero()
}

// Source provides the full observation history for a pipeline run.
type Source interface {
	Load(ctx context.Context) ([]Observation, error)
}

// SliceSource serves a fixed set of observations, mostly for tests and replays.
type SliceSource []Observation

// Load returns a copy of the slice.
func (s SliceSource) Load(ctx context.Context) ([]Observation, error) {
	out := make([]Observation, len(s))
	copy(out, s)
	return out, nil
}

// IntPtr is a convenience for building observations with known availability.
func IntPtr(v int) *int {
	return &v
}
