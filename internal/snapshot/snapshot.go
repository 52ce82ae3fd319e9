// Package snapshot writes and reads the published pipeline outputs. Files are
// replaced atomically: content goes to a temp file in the destination
// directory, is synced, then renamed over the previous version.
package snapshot

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/park-ride-insights/occupancy/internal/insights"
	"github.com/park-ride-insights/occupancy/internal/metrics"
)

// File names inside the output directory
const (
	InsightsFile = "insights.json"
	StatsFile    = "master_stats.csv"
)

// StatsHeader is the master stats CSV layout.
var StatsHeader = []string{
	"facility_name", "day_of_week", "time_bin", "is_school_holiday",
	"n", "sum_available", "sum_sq_available", "full_count", "count",
}

// EncodeInsights renders records as the published JSON document.
func EncodeInsights(records []insights.Record) ([]byte, error) {
	if records == nil {
		records = []insights.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode insights: %w", err)
	}
	return append(data, '\n'), nil
}

// EncodeStats renders buckets in key order as CSV.
func EncodeStats(buckets metrics.Buckets) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(StatsHeader); err != nil {
		return nil, err
	}
	for _, e := range buckets.Sorted() {
		rec := []string{
			e.Key.Facility,
			strconv.Itoa(e.Key.DayOfWeek),
			strconv.Itoa(e.Key.TimeBin),
			strconv.FormatBool(e.Key.SchoolHoliday),
			formatFloat(e.Bucket.N),
			formatFloat(e.Bucket.Sum),
			formatFloat(e.Bucket.SumSq),
			formatFloat(e.Bucket.FullCount),
			strconv.Itoa(e.Bucket.Count),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode stats: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFileAtomic replaces path with data without ever exposing a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	committed = true
	return nil
}

// ReadInsights loads a published insights document.
func ReadInsights(path string) ([]insights.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []insights.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
