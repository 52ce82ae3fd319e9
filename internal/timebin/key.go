// Package timebin maps observation instants onto the weekly grid of
// ten-minute slots used to group occupancy samples.
package timebin

import (
	"fmt"
	"time"
	_ "time/tzdata" // reference zone must resolve on hosts without zoneinfo

	"github.com/park-ride-insights/occupancy/internal/calendar"
)

const (
	// BinsPerDay is the number of ten-minute slots in a day.
	BinsPerDay = 144
	// DaysPerWeek bounds DayOfWeek.
	DaysPerWeek = 7
	binMinutes  = 10
)

// DefaultZone is the civil zone the Park&Ride network runs on.
const DefaultZone = "Australia/Sydney"

// Key identifies one aggregate bucket. It is comparable and safe to use as a map key.
type Key struct {
	Facility      string
	DayOfWeek     int // 0=Monday .. 6=Sunday
	TimeBin       int // 0..143
	SchoolHoliday bool
}

// Less orders keys by facility, holiday status, day, then bin.
func (k Key) Less(o Key) bool {
	if k.Facility != o.Facility {
		return k.Facility < o.Facility
	}
	if k.SchoolHoliday != o.SchoolHoliday {
		return !k.SchoolHoliday
	}
	if k.DayOfWeek != o.DayOfWeek {
		return k.DayOfWeek < o.DayOfWeek
	}
	return k.TimeBin < o.TimeBin
}

// Deriver turns timestamps into keys using a fixed reference zone and a holiday calendar.
type Deriver struct {
	loc      *time.Location
	holidays *calendar.Calendar
}

// NewDeriver creates a deriver. A nil location means UTC; a nil calendar has no holidays.
func NewDeriver(loc *time.Location, holidays *calendar.Calendar) *Deriver {
	if loc == nil {
		loc = time.UTC
	}
	return &Deriver{loc: loc, holidays: holidays}
}

// LoadDeriver resolves the named zone and builds a deriver.
func LoadDeriver(zone string, holidays *calendar.Calendar) (*Deriver, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return NewDeriver(loc, holidays), nil
}

// Location returns the reference zone.
func (d *Deriver) Location() *time.Location {
	return d.loc
}

// Derive returns the key for an observation of facility at instant t.
func (d *Deriver) Derive(facility string, t time.Time) Key {
	local := t.In(d.loc)
	return Key{
		Facility:      facility,
		DayOfWeek:     MondayIndex(local.Weekday()),
		TimeBin:       Bin(local),
		SchoolHoliday: d.holidays.IsHoliday(local),
	}
}

// MondayIndex converts time.Weekday (Sunday=0) to Monday=0 numbering.
func MondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % DaysPerWeek
}

// Bin returns the ten-minute slot of t's wall clock.
func Bin(t time.Time) int {
	return t.Hour()*6 + t.Minute()/binMinutes
}
