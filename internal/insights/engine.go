// Package insights turns aggregated occupancy buckets into per-day fill and
// empty time estimates.
package insights

import (
	"math"
	"sort"

	"github.com/park-ride-insights/occupancy/internal/config"
	"github.com/park-ride-insights/occupancy/internal/metrics"
	"github.com/park-ride-insights/occupancy/internal/timebin"
)

// CurvePoint is one bin of a group's intraday curve with unrounded estimates.
type CurvePoint struct {
	Bin      int
	Mean     float64
	ProbFull float64
}

// Estimate is the outcome of the fill/empty heuristics for one curve.
type Estimate struct {
	FillTime    string
	EmptyTime   string
	MaxFullProb float64
	Filled      bool // false when the curve never reaches the full threshold
	FillBin     int  // valid when Filled
	EmptyBin    int  // -1 when the late label was used or Filled is false
}

// Engine derives insight records from completed buckets.
type Engine struct {
	th    config.Thresholds
	names NameMapper
	z     float64
}

// NewEngine creates an engine. A nil mapper strips the Park&Ride prefix only.
func NewEngine(th config.Thresholds, names NameMapper) *Engine {
	if names == nil {
		names = Names{}
	}
	return &Engine{th: th, names: names, z: metrics.ZForConfidence(th.ConfidenceLevel)}
}

type groupKey struct {
	facility      string
	schoolHoliday bool
	dayOfWeek     int
}

// Derive groups buckets by facility, holiday status and weekday and returns
// one record per group, sorted by display name, status and day.
func (e *Engine) Derive(buckets metrics.Buckets) []Record {
	entries := buckets.Sorted()

	var records []Record
	for start := 0; start < len(entries); {
		gk := groupOf(entries[start].Key)
		end := start + 1
		for end < len(entries) && groupOf(entries[end].Key) == gk {
			end++
		}
		if rec, ok := e.deriveGroup(gk, entries[start:end]); ok {
			records = append(records, rec)
		}
		start = end
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Facility != b.Facility {
			return a.Facility < b.Facility
		}
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		return a.DayPriority < b.DayPriority
	})
	return records
}

func groupOf(k timebin.Key) groupKey {
	return groupKey{facility: k.Facility, schoolHoliday: k.SchoolHoliday, dayOfWeek: k.DayOfWeek}
}

// deriveGroup expects entries already ordered by bin.
func (e *Engine) deriveGroup(gk groupKey, entries []metrics.Entry) (Record, bool) {
	curve := make([]CurvePoint, 0, len(entries))
	series := make([]Point, 0, len(entries))
	lowData := false

	for _, entry := range entries {
		if entry.Bucket.N <= 0 {
			continue
		}
		if entry.Bucket.Count <= e.th.LowObservationThreshold {
			lowData = true
		}

		s := metrics.Derive(entry.Bucket, e.z)
		curve = append(curve, CurvePoint{Bin: entry.Key.TimeBin, Mean: s.Mean, ProbFull: s.ProbFull})
		series = append(series, Point{
			Bin:      entry.Key.TimeBin,
			Label:    timebin.Label(entry.Key.TimeBin),
			Avg:      round(s.Mean, 1),
			SE:       round(s.StdErr, 2),
			FullProb: round(s.ProbFull, 3),
			Low:      round(s.Lower, 1),
			High:     round(s.Upper, 1),
		})
	}
	if len(curve) == 0 {
		return Record{}, false
	}

	est := EstimateCurve(curve, e.th)

	return Record{
		Facility:       e.names.DisplayName(gk.facility),
		Day:            timebin.DayName(gk.dayOfWeek),
		DayPriority:    gk.dayOfWeek,
		Status:         StatusLabel(gk.schoolHoliday),
		LowDataWarning: lowData,
		Summary: Summary{
			FillTime:    est.FillTime,
			EmptyTime:   est.EmptyTime,
			MaxFullProb: round(est.MaxFullProb, 4),
		},
		Series: series,
	}, true
}

// EstimateCurve applies the fill and recovery heuristics to a curve sorted by bin.
//
// Fill time is the first bin whose full probability reaches the threshold,
// even if a later bin peaks higher. Empty time is searched forward from the
// first bin of minimum mean availability and needs both enough free spots and
// a low full probability; without such a bin the late label is used.
func EstimateCurve(curve []CurvePoint, th config.Thresholds) Estimate {
	est := Estimate{FillBin: -1, EmptyBin: -1}
	if len(curve) == 0 {
		est.FillTime, est.EmptyTime = RarelyFull, Available
		return est
	}

	fillIdx := -1
	for i, p := range curve {
		if p.ProbFull > est.MaxFullProb {
			est.MaxFullProb = p.ProbFull
		}
		if fillIdx < 0 && p.ProbFull >= th.FullProbabilityThreshold {
			fillIdx = i
		}
	}

	if fillIdx < 0 {
		est.FillTime, est.EmptyTime = RarelyFull, Available
		return est
	}

	est.Filled = true
	est.FillBin = curve[fillIdx].Bin
	est.FillTime = timebin.Label(est.FillBin)

	peak := 0
	for i, p := range curve {
		if p.Mean < curve[peak].Mean {
			peak = i
		}
	}

	est.EmptyTime = th.LateLabel
	for _, p := range curve[peak:] {
		if p.Mean >= th.RecoverySpots && p.ProbFull < th.RecoveryProbability {
			est.EmptyBin = p.Bin
			est.EmptyTime = timebin.Label(p.Bin)
			break
		}
	}
	return est
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
