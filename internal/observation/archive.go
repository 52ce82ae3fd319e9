package observation

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Reading is a full poller record as archived to CSV.
type Reading struct {
	Observation
	TfNSWFacilityID string
	Suburb          string
	Latitude        string
	Longitude       string
	Spots           int
	Occupied        *int
	Status          string
}

// Archive appends poller readings to yearly raw CSV files under Dir.
type Archive struct {
	Dir string
}

// NewArchive creates an archive rooted at dir.
func NewArchive(dir string) *Archive {
	return &Archive{Dir: dir}
}

// PathFor returns the archive file a reading polled at t belongs to.
func (a *Archive) PathFor(t time.Time) string {
	return filepath.Join(a.Dir, fmt.Sprintf("%d_occupancy_data.csv", t.UTC().Year()))
}

// Append writes readings to the file for polledAt, adding a header to new files.
func (a *Archive) Append(polledAt time.Time, readings []Reading) error {
	if len(readings) == 0 {
		return nil
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create archive dir: %w", err)
	}

	path := a.PathFor(polledAt)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(RawHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, r := range readings {
		if err := w.Write(r.record()); err != nil {
			return fmt.Errorf("failed to write reading: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	return f.Sync()
}

func (r Reading) record() []string {
	return []string{
		r.ObservedAt.UTC().Format(time.RFC3339),
		r.FacilityID,
		r.FacilityName,
		r.TfNSWFacilityID,
		r.Suburb,
		r.Latitude,
		r.Longitude,
		strconv.Itoa(r.Spots),
		optionalInt(r.Occupied),
		optionalInt(r.Available),
		r.Status,
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
