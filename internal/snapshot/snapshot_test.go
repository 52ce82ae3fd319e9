package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park-ride-insights/occupancy/internal/insights"
	"github.com/park-ride-insights/occupancy/internal/metrics"
	"github.com/park-ride-insights/occupancy/internal/timebin"
)

func TestEncodeInsightsEmpty(t *testing.T) {
	data, err := EncodeInsights(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestEncodeInsightsFieldNames(t *testing.T) {
	data, err := EncodeInsights([]insights.Record{{
		Facility:    "Kiama",
		Day:         "Monday",
		DayPriority: 0,
		Status:      insights.StatusNormal,
		Summary:     insights.Summary{FillTime: "7:30 AM", EmptyTime: "After 10:00 PM", MaxFullProb: 0.95},
		Series:      []insights.Point{{Bin: 45, Label: "7:30 AM", Avg: 0, SE: 0, FullProb: 0.95}},
	}})
	require.NoError(t, err)

	s := string(data)
	for _, field := range []string{`"facility"`, `"day_priority"`, `"low_data_warning"`, `"fill_time"`, `"empty_time"`, `"max_full_prob"`, `"full_prob"`, `"se"`} {
		assert.Contains(t, s, field)
	}
	assert.True(t, strings.HasPrefix(s, "[\n  {"), "two-space indentation")
}

func TestEncodeStats(t *testing.T) {
	buckets := metrics.Buckets{
		timebin.Key{Facility: "B", DayOfWeek: 0, TimeBin: 0}:                      {N: 1, Sum: 2, SumSq: 4, Count: 1},
		timebin.Key{Facility: "A", DayOfWeek: 6, TimeBin: 143, SchoolHoliday: true}: {N: 0.96, Sum: 0, SumSq: 0, FullCount: 0.96, Count: 1},
	}
	data, err := EncodeStats(buckets)
	require.NoError(t, err)

	want := "facility_name,day_of_week,time_bin,is_school_holiday,n,sum_available,sum_sq_available,full_count,count\n" +
		"A,6,143,true,0.96,0,0,0.96,1\n" +
		"B,0,0,false,1,2,4,0,1\n"
	assert.Equal(t, want, string(data))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "processed")
	path := filepath.Join(dir, InsightsFile)

	require.NoError(t, WriteFileAtomic(path, []byte("first")))
	require.NoError(t, WriteFileAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestReadInsights(t *testing.T) {
	path := filepath.Join(t.TempDir(), InsightsFile)
	records := []insights.Record{{Facility: "Kiama", Day: "Friday", DayPriority: 4, Status: insights.StatusSchoolHoliday}}

	data, err := EncodeInsights(records)
	require.NoError(t, err)
	require.NoError(t, WriteFileAtomic(path, data))

	got, err := ReadInsights(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kiama", got[0].Facility)
	assert.Equal(t, 4, got[0].DayPriority)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = ReadInsights(path)
	assert.Error(t, err)
}
