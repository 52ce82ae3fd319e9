package observation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when a CSV source directory contains no raw files.
var ErrNoData = errors.New("no raw observation files found")

// RawHeader is the column layout of the raw occupancy archive.
var RawHeader = []string{
	"timestamp_utc", "facility_id", "facility_name", "tfnsw_facility_id",
	"suburb", "latitude", "longitude", "spots", "occupied", "available", "status",
}

// timestampLayouts covers the formats seen in MessageDate values.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// CSVSource reads every *.csv file below Dir.
type CSVSource struct {
	Dir string
}

// NewCSVSource creates a source over a raw archive directory.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

// Load reads all files in lexical path order so repeated runs see the same sequence.
func (s *CSVSource) Load(ctx context.Context) ([]Observation, error) {
	var files []string
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.Dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", s.Dir, ErrNoData)
	}
	sort.Strings(files)

	var all []Observation
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs, err := readFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, obs...)
	}
	return all, nil
}

func readFile(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	obs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// ReadCSV parses a raw archive stream. Rows with an unparseable timestamp are
// skipped; an empty availability cell becomes an unknown reading.
func ReadCSV(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{"timestamp_utc", "facility_name", "available"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Observation
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		ts, err := ParseTimestamp(field(rec, "timestamp_utc"))
		if err != nil {
			continue
		}

		o := Observation{
			FacilityID:   field(rec, "facility_id"),
			FacilityName: field(rec, "facility_name"),
			ObservedAt:   ts,
		}
		if v, ok := parseCount(field(rec, "available")); ok {
			o.Available = &v
		}
		out = append(out, o)
	}
	return out, nil
}

// ParseTimestamp parses an archive timestamp. Values without an offset are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// parseCount accepts integers and float renderings such as "12.0".
func parseCount(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return int(f), true
}
