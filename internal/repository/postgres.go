package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/park-ride-insights/occupancy/internal/observation"
)

// PostgresObservations reads the observation history from a Postgres
// mirror of the poller's observations table.
type PostgresObservations struct {
	pool *pgxpool.Pool
}

// NewPostgresObservations connects to databaseURL and verifies the connection.
func NewPostgresObservations(ctx context.Context, databaseURL string) (*PostgresObservations, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresObservations{pool: pool}, nil
}

// Close releases the pool.
func (r *PostgresObservations) Close() {
	r.pool.Close()
}

// Load returns every observation ordered by time and facility.
func (r *PostgresObservations) Load(ctx context.Context) ([]observation.Observation, error) {
	query := `
		SELECT facility_id, facility_name, observed_at, available
		FROM observations
		ORDER BY observed_at, facility_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (observation.Observation, error) {
		var (
			o         observation.Observation
			observed  time.Time
			available *int32
		)
		if err := row.Scan(&o.FacilityID, &o.FacilityName, &observed, &available); err != nil {
			return o, err
		}
		o.ObservedAt = observed.UTC()
		if available != nil {
			v := int(*available)
			o.Available = &v
		}
		return o, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan observations: %w", err)
	}
	return out, nil
}
