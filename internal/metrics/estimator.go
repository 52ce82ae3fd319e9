package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DerivedStats are the estimates computed from a bucket's sufficient statistics.
type DerivedStats struct {
	Mean     float64
	Variance float64
	StdErr   float64
	ProbFull float64
	Lower    float64 // Mean - z*StdErr, never below zero
	Upper    float64 // Mean + z*StdErr
}

// Derive computes estimates for a bucket. Buckets are only created from real
// observations, so N is positive; a zero bucket yields zero stats.
//
// Variance uses Bessel's correction over the weighted count and is defined as
// zero when N <= 1. The clamp at zero absorbs cancellation in SumSq - Sum²/N.
func Derive(b Bucket, z float64) DerivedStats {
	if b.N <= 0 {
		return DerivedStats{}
	}

	mean := b.Sum / b.N

	var variance float64
	if b.N > 1 {
		variance = math.Max(0, (b.SumSq-b.Sum*b.Sum/b.N)/(b.N-1))
	}

	stdErr := math.Sqrt(variance / b.N)

	return DerivedStats{
		Mean:     mean,
		Variance: variance,
		StdErr:   stdErr,
		ProbFull: math.Min(1, math.Max(0, b.FullCount/b.N)),
		Lower:    math.Max(0, mean-z*stdErr),
		Upper:    mean + z*stdErr,
	}
}

// ZForConfidence returns the two-sided standard normal critical value for a
// confidence level, e.g. 0.99 -> 2.5758.
func ZForConfidence(level float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-level)/2)
}
