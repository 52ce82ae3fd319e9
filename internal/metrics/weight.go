package metrics

import (
	"math"
	"time"
)

// WeightParams controls the monthly recency decay.
type WeightParams struct {
	DecayRate   float64
	FloorWeight float64
}

// MonthsBetween counts calendar months from obs to now, ignoring day of month.
// Observations dated after now count as zero months old.
func MonthsBetween(obs, now time.Time) int {
	months := (now.Year()-obs.Year())*12 + int(now.Month()) - int(obs.Month())
	if months < 0 {
		return 0
	}
	return months
}

// RecencyWeight returns max(floor, decay^months). Both instants should already
// be expressed in the reference zone so month boundaries are local ones.
func RecencyWeight(obs, now time.Time, p WeightParams) float64 {
	return WeightForAge(MonthsBetween(obs, now), p)
}

// WeightForAge is the decay curve over whole months of age.
func WeightForAge(months int, p WeightParams) float64 {
	if months <= 0 {
		return 1.0
	}
	return math.Max(p.FloorWeight, math.Pow(p.DecayRate, float64(months)))
}
