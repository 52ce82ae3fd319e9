package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHolidays = `{
  "nsw_school_holidays": [
    {"start": "2024-04-13", "end": "2024-04-28"},
    {"start": "2024-07-06", "end": "2024-07-21"}
  ]
}`

func TestParseAndIsHoliday(t *testing.T) {
	cal, err := Parse([]byte(sampleHolidays))
	require.NoError(t, err)
	assert.Equal(t, 2, cal.Len())

	tests := []struct {
		date string
		want bool
	}{
		{"2024-04-12", false},
		{"2024-04-13", true}, // start is inclusive
		{"2024-04-20", true},
		{"2024-04-28", true}, // end is inclusive
		{"2024-04-29", false},
		{"2024-07-10", true},
		{"2024-12-25", false},
	}
	for _, tc := range tests {
		t.Run(tc.date, func(t *testing.T) {
			d, err := time.Parse(dateLayout, tc.date)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cal.IsHoliday(d.Add(23*time.Hour)))
		})
	}
}

func TestIsHolidayUsesCivilDateOfLocation(t *testing.T) {
	cal, err := Parse([]byte(sampleHolidays))
	require.NoError(t, err)

	sydney, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)

	// 00:30 on the first holiday day in Sydney is still the previous day in UTC.
	instant := time.Date(2024, 4, 12, 14, 30, 0, 0, time.UTC)
	assert.False(t, cal.IsHoliday(instant))
	assert.True(t, cal.IsHoliday(instant.In(sydney)))
}

func TestNilCalendar(t *testing.T) {
	var cal *Calendar
	assert.False(t, cal.IsHoliday(time.Now()))
	assert.Equal(t, 0, cal.Len())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"nsw_school_holidays": [{"start": "2024-05-01", "end": "2024-04-01"}]}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"nsw_school_holidays": [{"start": "01/04/2024", "end": "2024-04-10"}]}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cal, err := Load(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, cal.Len())

	cal, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cal.Len())

	path := filepath.Join(dir, "school_holidays.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleHolidays), 0644))
	cal, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cal.Len())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}
