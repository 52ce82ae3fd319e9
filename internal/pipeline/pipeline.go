// Package pipeline runs the batch recomputation: load the full observation
// history, aggregate it into weighted buckets, derive insights and publish a
// new snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/park-ride-insights/occupancy/internal/calendar"
	"github.com/park-ride-insights/occupancy/internal/config"
	"github.com/park-ride-insights/occupancy/internal/db"
	"github.com/park-ride-insights/occupancy/internal/insights"
	"github.com/park-ride-insights/occupancy/internal/metrics"
	"github.com/park-ride-insights/occupancy/internal/observation"
	"github.com/park-ride-insights/occupancy/internal/snapshot"
	"github.com/park-ride-insights/occupancy/internal/timebin"
)

// ErrMissingInput marks runs aborted because an input could not be read.
var ErrMissingInput = errors.New("missing input")

// RunRecorder stores run bookkeeping. *db.DB implements it.
type RunRecorder interface {
	StartRun(ctx context.Context, startedAt, now time.Time, source string) (string, error)
	FinishRun(ctx context.Context, run db.Run) error
}

// Options configures a single run.
type Options struct {
	Source      observation.Source
	SourceName  string
	HolidayFile string
	Timezone    string
	Names       insights.NameMapper
	Thresholds  config.Thresholds
	Shards      int
	OutputDir   string

	// Now is the recency reference. Runs with equal Now over the same
	// observations publish byte-identical files.
	Now time.Time

	Runs RunRecorder // optional
	Logf func(format string, v ...interface{})
}

// Result describes a completed run.
type Result struct {
	RunID        string
	Aggregate    metrics.AggregateStats
	BucketCount  int
	Records      []insights.Record
	Summary      Summary
	InsightsPath string
	StatsPath    string
}

// Run executes the pipeline. Output files are replaced atomically, so a
// failed run never leaves a partially written snapshot behind.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}
	if opts.Now.IsZero() {
		return nil, fmt.Errorf("pipeline: reference time is required")
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	res := &Result{}
	if opts.Runs != nil {
		id, err := opts.Runs.StartRun(ctx, time.Now(), opts.Now, opts.SourceName)
		if err != nil {
			logf("Pipeline: failed to record run start: %v", err)
		}
		res.RunID = id
	}

	err := run(ctx, opts, res, logf)

	if opts.Runs != nil && res.RunID != "" {
		rec := db.Run{
			RunID:               res.RunID,
			Status:              db.RunSucceeded,
			ObservationsTotal:   res.Aggregate.Total,
			ObservationsDropped: res.Aggregate.Dropped,
			BucketCount:         res.BucketCount,
			RecordCount:         len(res.Records),
			OutputPath:          res.InsightsPath,
		}
		if err != nil {
			rec.Status = db.RunFailed
			rec.Error = err.Error()
		}
		if ferr := opts.Runs.FinishRun(ctx, rec); ferr != nil {
			logf("Pipeline: failed to record run result: %v", ferr)
		}
	}

	if err != nil {
		return nil, err
	}
	return res, nil
}

func run(ctx context.Context, opts Options, res *Result, logf func(string, ...interface{})) error {
	if opts.Source == nil {
		return fmt.Errorf("%w: no observation source configured", ErrMissingInput)
	}

	holidays, err := calendar.Load(opts.HolidayFile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingInput, err)
	}

	deriver, err := timebin.LoadDeriver(opts.Timezone, holidays)
	if err != nil {
		return err
	}

	obs, err := opts.Source.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to load observations: %w", ErrMissingInput, err)
	}
	if len(obs) == 0 {
		return fmt.Errorf("%w: observation source is empty", ErrMissingInput)
	}
	logf("Pipeline: loaded %d observations from %s (%d holiday ranges)", len(obs), opts.SourceName, holidays.Len())

	agg := metrics.NewAggregator(deriver, metrics.WeightParams{
		DecayRate:   opts.Thresholds.DecayRate,
		FloorWeight: opts.Thresholds.FloorWeight,
	}, opts.Now)

	buckets, aggStats, err := agg.AggregateParallel(ctx, obs, opts.Shards)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	res.Aggregate = aggStats
	res.BucketCount = len(buckets)
	if aggStats.Dropped > 0 {
		logf("Pipeline: dropped %d observations with unknown or negative availability", aggStats.Dropped)
	}

	engine := insights.NewEngine(opts.Thresholds, opts.Names)
	res.Records = engine.Derive(buckets)
	res.Summary = Summarize(buckets, res.Records, opts.Thresholds.LateLabel)

	statsData, err := snapshot.EncodeStats(buckets)
	if err != nil {
		return err
	}
	insightsData, err := snapshot.EncodeInsights(res.Records)
	if err != nil {
		return err
	}

	statsPath := filepath.Join(opts.OutputDir, snapshot.StatsFile)
	insightsPath := filepath.Join(opts.OutputDir, snapshot.InsightsFile)
	if err := snapshot.WriteFileAtomic(statsPath, statsData); err != nil {
		return err
	}
	if err := snapshot.WriteFileAtomic(insightsPath, insightsData); err != nil {
		return err
	}
	res.StatsPath = statsPath
	res.InsightsPath = insightsPath

	logf("Pipeline: %d buckets -> %d insight records (%d low-data, median bucket support %.0f)",
		res.BucketCount, len(res.Records), res.Summary.LowDataRecords, res.Summary.MedianBucketCount)
	return nil
}
