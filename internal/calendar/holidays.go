package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"
)

const dateLayout = "2006-01-02"

// Range is an inclusive span of civil dates.
type Range struct {
	Start time.Time
	End   time.Time
}

// Calendar answers whether a civil date falls inside any configured holiday range.
// It is immutable once built; the zero value and nil are empty calendars.
type Calendar struct {
	ranges []dateRange
}

// dateRange stores dates as yyyymmdd integers so comparison ignores time zones.
type dateRange struct {
	start int
	end   int
}

// New builds a calendar from inclusive ranges. Overlapping ranges are allowed.
func New(ranges []Range) *Calendar {
	c := &Calendar{ranges: make([]dateRange, 0, len(ranges))}
	for _, r := range ranges {
		c.ranges = append(c.ranges, dateRange{start: civilDate(r.Start), end: civilDate(r.End)})
	}
	return c
}

// IsHoliday reports whether the civil date of t (in t's own location) lies in any range.
func (c *Calendar) IsHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	d := civilDate(t)
	for _, r := range c.ranges {
		if r.start <= d && d <= r.end {
			return true
		}
	}
	return false
}

// Len returns the number of configured ranges.
func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ranges)
}

func civilDate(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// holidayFile mirrors the school_holidays.json layout.
type holidayFile struct {
	SchoolHolidays []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"nsw_school_holidays"`
}

// Load reads a holiday configuration file. A missing file yields an empty
// calendar; a file that exists but cannot be read or parsed is an error.
func Load(path string) (*Calendar, error) {
	if path == "" {
		return New(nil), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Calendar: %s not found, treating every date as a normal period", path)
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}

	return Parse(data)
}

// Parse decodes holiday ranges from JSON.
func Parse(data []byte) (*Calendar, error) {
	var file holidayFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse holiday file: %w", err)
	}

	ranges := make([]Range, 0, len(file.SchoolHolidays))
	for i, h := range file.SchoolHolidays {
		start, err := time.Parse(dateLayout, h.Start)
		if err != nil {
			return nil, fmt.Errorf("holiday %d: invalid start %q: %w", i, h.Start, err)
		}
		end, err := time.Parse(dateLayout, h.End)
		if err != nil {
			return nil, fmt.Errorf("holiday %d: invalid end %q: %w", i, h.End, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("holiday %d: end %s is before start %s", i, h.End, h.Start)
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}

	return New(ranges), nil
}
