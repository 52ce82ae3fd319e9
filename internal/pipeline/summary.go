package pipeline

import (
	"github.com/montanaflynn/stats"

	"github.com/park-ride-insights/occupancy/internal/insights"
	"github.com/park-ride-insights/occupancy/internal/metrics"
)

// Summary is a diagnostic digest of a run, logged and returned to callers.
type Summary struct {
	Facilities        int
	LowDataRecords    int
	RarelyFullRecords int
	LateRecords       int
	MedianBucketCount float64
	P10BucketCount    float64
}

// Summarize computes run diagnostics over the buckets and records.
func Summarize(buckets metrics.Buckets, records []insights.Record, lateLabel string) Summary {
	var s Summary

	facilities := make(map[string]struct{})
	counts := make([]float64, 0, len(buckets))
	for key, b := range buckets {
		facilities[key.Facility] = struct{}{}
		counts = append(counts, float64(b.Count))
	}
	s.Facilities = len(facilities)

	if len(counts) > 0 {
		s.MedianBucketCount, _ = stats.Median(counts)
		s.P10BucketCount, _ = stats.Percentile(counts, 10)
	}

	for _, r := range records {
		if r.LowDataWarning {
			s.LowDataRecords++
		}
		if r.Summary.FillTime == insights.RarelyFull {
			s.RarelyFullRecords++
		}
		if r.Summary.EmptyTime == lateLabel {
			s.LateRecords++
		}
	}
	return s
}
