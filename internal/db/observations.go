package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/park-ride-insights/occupancy/internal/observation"
)

// Load returns the full observation history in a stable order, so the store
// can serve directly as a pipeline observation source.
func (db *DB) Load(ctx context.Context) ([]observation.Observation, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT facility_id, facility_name, observed_at_utc, available
		FROM observations
		ORDER BY observed_at_utc, facility_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []observation.Observation
	for rows.Next() {
		var (
			o         observation.Observation
			observed  string
			available sql.NullInt64
		)
		if err := rows.Scan(&o.FacilityID, &o.FacilityName, &observed, &available); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		t, err := time.Parse(time.RFC3339, observed)
		if err != nil {
			continue
		}
		o.ObservedAt = t
		if available.Valid {
			v := int(available.Int64)
			o.Available = &v
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	return out, nil
}

// CountObservations returns the number of stored readings.
func (db *DB) CountObservations(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM observations").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
