package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park-ride-insights/occupancy/internal/config"
	"github.com/park-ride-insights/occupancy/internal/metrics"
	"github.com/park-ride-insights/occupancy/internal/timebin"
)

func curveOf(startBin int, means, probs []float64) []CurvePoint {
	out := make([]CurvePoint, len(probs))
	for i := range probs {
		out[i] = CurvePoint{Bin: startBin + i, Mean: means[i], ProbFull: probs[i]}
	}
	return out
}

func TestEstimateCurveFirstCrossing(t *testing.T) {
	curve := curveOf(42,
		[]float64{40, 20, 2, 1, 15, 30},
		[]float64{0.1, 0.5, 0.85, 0.9, 0.3, 0.1},
	)
	est := EstimateCurve(curve, config.DefaultThresholds())

	assert.True(t, est.Filled)
	assert.Equal(t, 44, est.FillBin, "first bin over the threshold, not the peak")
	assert.Equal(t, "7:20 AM", est.FillTime)
	assert.Equal(t, 0.9, est.MaxFullProb)
	assert.Equal(t, 47, est.EmptyBin)
	assert.Equal(t, "7:50 AM", est.EmptyTime)
}

func TestEstimateCurveRarelyFull(t *testing.T) {
	curve := curveOf(40,
		[]float64{50, 30, 12},
		[]float64{0.0, 0.4, 0.79},
	)
	est := EstimateCurve(curve, config.DefaultThresholds())

	assert.False(t, est.Filled)
	assert.Equal(t, RarelyFull, est.FillTime)
	assert.Equal(t, Available, est.EmptyTime)
	assert.Equal(t, 0.79, est.MaxFullProb)
	assert.Equal(t, -1, est.EmptyBin)
}

func TestEstimateCurveNeverRecovers(t *testing.T) {
	th := config.DefaultThresholds()
	curve := curveOf(100,
		[]float64{0, 0, 3},
		[]float64{0.9, 0.95, 0.6},
	)
	est := EstimateCurve(curve, th)

	assert.True(t, est.Filled)
	assert.Equal(t, th.LateLabel, est.EmptyTime)
	assert.Equal(t, -1, est.EmptyBin)
}

func TestEstimateCurveRecoveryNeedsBothConditions(t *testing.T) {
	curve := curveOf(60,
		[]float64{0, 25, 5, 12},
		[]float64{0.95, 0.5, 0.1, 0.15},
	)
	est := EstimateCurve(curve, config.DefaultThresholds())

	// bin 61 has spots but is still often full; bin 62 is rarely full but too tight.
	assert.Equal(t, 63, est.EmptyBin)
	assert.Equal(t, "10:30 AM", est.EmptyTime)
}

func TestEstimateCurveSearchesFromFirstMinimum(t *testing.T) {
	curve := curveOf(50,
		[]float64{5, 0, 30, 0, 2},
		[]float64{0.85, 0.9, 0.1, 0.95, 0.5},
	)
	est := EstimateCurve(curve, config.DefaultThresholds())

	assert.Equal(t, 52, est.EmptyBin)
}

func TestEstimateCurveEmpty(t *testing.T) {
	est := EstimateCurve(nil, config.DefaultThresholds())
	assert.Equal(t, RarelyFull, est.FillTime)
	assert.Equal(t, Available, est.EmptyTime)
}

func key(facility string, holiday bool, dow, bin int) timebin.Key {
	return timebin.Key{Facility: facility, SchoolHoliday: holiday, DayOfWeek: dow, TimeBin: bin}
}

func TestDeriveRecords(t *testing.T) {
	buckets := metrics.Buckets{
		key("Park&Ride - Kiama", false, 0, 48): {N: 3, Sum: 10, SumSq: 50, FullCount: 0, Count: 30},
		key("Park&Ride - Kiama", false, 0, 49): {N: 3, Sum: 0, SumSq: 0, FullCount: 3, Count: 30},
		key("Park&Ride - Kiama", false, 6, 48): {N: 1, Sum: 12, SumSq: 144, FullCount: 0, Count: 1},
		key("Park&Ride - Kiama", true, 0, 48):  {N: 2, Sum: 40, SumSq: 800, FullCount: 0, Count: 8},
		key("Park&Ride - Ashfield", false, 1, 48): {N: 2, Sum: 40, SumSq: 800, FullCount: 0, Count: 12},
		key("Park&Ride - Empty", false, 2, 48):    {N: 0, Count: 0},
	}
	names := Names{"Park&Ride - Ashfield": "Zeta Ashfield"}

	records := NewEngine(config.DefaultThresholds(), names).Derive(buckets)
	require.Len(t, records, 4, "groups whose buckets carry no weight are skipped")

	type ident struct {
		Facility string
		Status   string
		Day      string
	}
	got := make([]ident, len(records))
	for i, r := range records {
		got[i] = ident{r.Facility, r.Status, r.Day}
	}
	assert.Equal(t, []ident{
		{"Kiama", StatusNormal, "Monday"},
		{"Kiama", StatusNormal, "Sunday"},
		{"Kiama", StatusSchoolHoliday, "Monday"},
		{"Zeta Ashfield", StatusNormal, "Tuesday"},
	}, got)

	monday := records[0]
	assert.Equal(t, 0, monday.DayPriority)
	assert.False(t, monday.LowDataWarning)
	require.Len(t, monday.Series, 2)
	assert.Equal(t, 3.3, monday.Series[0].Avg)
	assert.Equal(t, "8:00 AM", monday.Series[0].Label)
	assert.Equal(t, 1.0, monday.Series[1].FullProb)
	assert.Equal(t, "8:10 AM", monday.Summary.FillTime)
	assert.Equal(t, config.DefaultThresholds().LateLabel, monday.Summary.EmptyTime)
	assert.Equal(t, 1.0, monday.Summary.MaxFullProb)

	sunday := records[1]
	assert.Equal(t, 6, sunday.DayPriority)
	assert.True(t, sunday.LowDataWarning)
	require.Len(t, sunday.Series, 1)
	p := sunday.Series[0]
	assert.Equal(t, 12.0, p.Avg)
	assert.Equal(t, 0.0, p.SE)
	assert.Equal(t, 12.0, p.Low)
	assert.Equal(t, 12.0, p.High)
	assert.Equal(t, RarelyFull, sunday.Summary.FillTime)
	assert.Equal(t, Available, sunday.Summary.EmptyTime)

	assert.False(t, records[2].LowDataWarning)
	assert.Equal(t, 20.0, records[3].Series[0].Avg)
}

func TestDeriveLowDataThresholdInclusive(t *testing.T) {
	th := config.DefaultThresholds()
	buckets := metrics.Buckets{
		key("A", false, 0, 0): {N: 5, Sum: 50, SumSq: 500, Count: th.LowObservationThreshold},
		key("B", false, 0, 0): {N: 6, Sum: 60, SumSq: 600, Count: th.LowObservationThreshold + 1},
	}
	records := NewEngine(th, nil).Derive(buckets)
	require.Len(t, records, 2)
	assert.True(t, records[0].LowDataWarning)
	assert.False(t, records[1].LowDataWarning)
}

func TestDeriveEmpty(t *testing.T) {
	assert.Empty(t, NewEngine(config.DefaultThresholds(), nil).Derive(metrics.Buckets{}))
}

func TestNames(t *testing.T) {
	names := Names{"Park&Ride - Tallawong P1": "Tallawong (P1)"}
	assert.Equal(t, "Tallawong (P1)", names.DisplayName("Park&Ride - Tallawong P1"))
	assert.Equal(t, "Kiama", names.DisplayName("Park&Ride - Kiama"))
	assert.Equal(t, "Somewhere", names.DisplayName("Somewhere"))
}

func TestLoadNames(t *testing.T) {
	names, err := LoadNames("")
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = LoadNames("does-not-exist.json")
	assert.Error(t, err)
}
