package db

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Cleanup deletes observations older than retention. Recency weights never
// reach zero, so a non-positive retention keeps the full history.
func (db *DB) Cleanup(ctx context.Context, now time.Time, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}
	cutoff := now.Add(-retention).UTC().Format(time.RFC3339)

	db.LockWrite()
	defer db.UnlockWrite()

	queries := []struct {
		name  string
		query string
	}{
		{
			name:  "observations",
			query: "DELETE FROM observations WHERE observed_at_utc < ?",
		},
		{
			name:  "poll_batches",
			query: "DELETE FROM poll_batches WHERE polled_at_utc < ?",
		},
	}

	totalDeleted := 0
	for _, q := range queries {
		result, err := db.conn.ExecContext(ctx, q.query, cutoff)
		if err != nil {
			return fmt.Errorf("failed to cleanup %s: %w", q.name, err)
		}
		rows, _ := result.RowsAffected()
		totalDeleted += int(rows)
	}

	if totalDeleted > 0 {
		log.Printf("Cleanup: deleted %d records older than %s", totalDeleted, cutoff)
	}

	return nil
}
