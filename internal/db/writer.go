package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/park-ride-insights/occupancy/internal/observation"
)

// CreatePollBatch records a poll cycle and returns its ID
func (db *DB) CreatePollBatch(ctx context.Context, polledAt time.Time, facilityCount, errorCount int) (string, error) {
	pollID := uuid.New().String()

	db.LockWrite()
	defer db.UnlockWrite()

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO poll_batches (poll_id, polled_at_utc, facility_count, error_count) VALUES (?, ?, ?, ?)",
		pollID, polledAt.UTC().Format(time.RFC3339), facilityCount, errorCount,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create poll batch: %w", err)
	}

	return pollID, nil
}

// InsertReadings stores poller readings. A reading already stored for the same
// facility and timestamp is ignored, so re-polling an unchanged feed is harmless.
func (db *DB) InsertReadings(ctx context.Context, pollID string, readings []observation.Reading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	db.LockWrite()
	defer db.UnlockWrite()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO observations (
			poll_id, facility_id, facility_name, tfnsw_facility_id, suburb,
			spots, occupied, available, status, observed_at_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range readings {
		res, err := stmt.ExecContext(ctx,
			pollID, r.FacilityID, r.FacilityName, r.TfNSWFacilityID, r.Suburb,
			r.Spots, r.Occupied, r.Available, r.Status,
			r.ObservedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert reading for %s: %w", r.FacilityID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit readings: %w", err)
	}
	return inserted, nil
}
