package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// ErrNoRuns is returned by LatestRun when no pipeline run has been recorded.
var ErrNoRuns = errors.New("no pipeline runs recorded")

// Run is one batch pipeline execution.
type Run struct {
	RunID               string     `json:"run_id"`
	StartedAt           time.Time  `json:"started_at"`
	FinishedAt          *time.Time `json:"finished_at,omitempty"`
	NowReference        time.Time  `json:"now_reference"`
	Source              string     `json:"source"`
	Status              string     `json:"status"`
	ObservationsTotal   int        `json:"observations_total"`
	ObservationsDropped int        `json:"observations_dropped"`
	BucketCount         int        `json:"bucket_count"`
	RecordCount         int        `json:"record_count"`
	OutputPath          string     `json:"output_path,omitempty"`
	Error               string     `json:"error,omitempty"`
}

// StartRun records a running pipeline execution and returns its ID.
func (db *DB) StartRun(ctx context.Context, startedAt, now time.Time, source string) (string, error) {
	runID := uuid.New().String()

	db.LockWrite()
	defer db.UnlockWrite()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO pipeline_runs (run_id, started_at_utc, now_reference_utc, source, status)
		VALUES (?, ?, ?, ?, ?)
	`, runID, startedAt.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339), source, RunRunning)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return runID, nil
}

// FinishRun stores the outcome of a run.
func (db *DB) FinishRun(ctx context.Context, run Run) error {
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}

	db.LockWrite()
	defer db.UnlockWrite()

	_, err := db.conn.ExecContext(ctx, `
		UPDATE pipeline_runs SET
			finished_at_utc = ?,
			status = ?,
			observations_total = ?,
			observations_dropped = ?,
			bucket_count = ?,
			record_count = ?,
			output_path = ?,
			error = ?
		WHERE run_id = ?
	`, finished.Format(time.RFC3339), run.Status, run.ObservationsTotal, run.ObservationsDropped,
		run.BucketCount, run.RecordCount, run.OutputPath, nullString(run.Error), run.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.RunID, err)
	}
	return nil
}

// LatestRun returns the most recently started run.
func (db *DB) LatestRun(ctx context.Context) (*Run, error) {
	var (
		r                        Run
		started, nowRef          string
		finished, output, errMsg sql.NullString
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT run_id, started_at_utc, finished_at_utc, now_reference_utc, source, status,
			observations_total, observations_dropped, bucket_count, record_count, output_path, error
		FROM pipeline_runs
		ORDER BY started_at_utc DESC, rowid DESC
		LIMIT 1
	`).Scan(&r.RunID, &started, &finished, &nowRef, &r.Source, &r.Status,
		&r.ObservationsTotal, &r.ObservationsDropped, &r.BucketCount, &r.RecordCount, &output, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	r.StartedAt, _ = time.Parse(time.RFC3339, started)
	r.NowReference, _ = time.Parse(time.RFC3339, nowRef)
	if finished.Valid {
		if t, err := time.Parse(time.RFC3339, finished.String); err == nil {
			r.FinishedAt = &t
		}
	}
	r.OutputPath = output.String
	r.Error = errMsg.String
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
