package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park-ride-insights/occupancy/internal/observation"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.EnsureSchema(context.Background()))
	return database
}

func reading(id string, at time.Time, available *int) observation.Reading {
	r := observation.Reading{
		Observation: observation.Observation{
			FacilityID:   id,
			FacilityName: "Park&Ride - " + id,
			ObservedAt:   at,
			Available:    available,
		},
		Spots:  100,
		Status: "Available",
	}
	if available != nil {
		occupied := 100 - *available
		r.Occupied = &occupied
	} else {
		r.Status = "Unknown (Sensor Error)"
	}
	return r
}

func TestInsertAndLoadReadings(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	t0 := time.Date(2024, 3, 4, 21, 0, 0, 0, time.UTC)
	pollID, err := database.CreatePollBatch(ctx, t0, 3, 0)
	require.NoError(t, err)

	readings := []observation.Reading{
		reading("7", t0, observation.IntPtr(12)),
		reading("6", t0, nil),
		reading("6", t0.Add(-5*time.Minute), observation.IntPtr(0)),
	}
	n, err := database.InsertReadings(ctx, pollID, readings)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Same facility and timestamp again is ignored.
	n, err = database.InsertReadings(ctx, pollID, readings[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := database.CountObservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	obs, err := database.Load(ctx)
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, "6", obs[0].FacilityID)
	assert.Equal(t, t0.Add(-5*time.Minute), obs[0].ObservedAt)
	require.NotNil(t, obs[0].Available)
	assert.Equal(t, 0, *obs[0].Available)

	assert.Equal(t, "6", obs[1].FacilityID)
	assert.Nil(t, obs[1].Available)

	assert.Equal(t, "7", obs[2].FacilityID)
	assert.Equal(t, 12, *obs[2].Available)
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-400 * 24 * time.Hour)

	oldPoll, err := database.CreatePollBatch(ctx, old, 1, 0)
	require.NoError(t, err)
	_, err = database.InsertReadings(ctx, oldPoll, []observation.Reading{reading("7", old, observation.IntPtr(3))})
	require.NoError(t, err)

	newPoll, err := database.CreatePollBatch(ctx, now, 1, 0)
	require.NoError(t, err)
	_, err = database.InsertReadings(ctx, newPoll, []observation.Reading{reading("7", now, observation.IntPtr(9))})
	require.NoError(t, err)

	require.NoError(t, database.Cleanup(ctx, now, 0))
	count, err := database.CountObservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "non-positive retention keeps everything")

	require.NoError(t, database.Cleanup(ctx, now, 365*24*time.Hour))
	count, err = database.CountObservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	_, err := database.LatestRun(ctx)
	assert.True(t, errors.Is(err, ErrNoRuns))

	started := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	id, err := database.StartRun(ctx, started, now, "sqlite")
	require.NoError(t, err)

	run, err := database.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, run.RunID)
	assert.Equal(t, RunRunning, run.Status)
	assert.Nil(t, run.FinishedAt)
	assert.Equal(t, now, run.NowReference)

	finished := started.Add(time.Minute)
	require.NoError(t, database.FinishRun(ctx, Run{
		RunID:             id,
		FinishedAt:        &finished,
		Status:            RunFailed,
		ObservationsTotal: 10,
		Error:             "missing input: observation source is empty",
	}))

	run, err = database.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, run.Status)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, finished, *run.FinishedAt)
	assert.Equal(t, 10, run.ObservationsTotal)
	assert.Equal(t, "missing input: observation source is empty", run.Error)

	later, err := database.StartRun(ctx, started.Add(time.Hour), now, "csv")
	require.NoError(t, err)
	run, err = database.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, later, run.RunID)
	assert.Equal(t, "csv", run.Source)
	assert.Empty(t, run.Error)
}

func TestPing(t *testing.T) {
	assert.NoError(t, openTestDB(t).Ping(context.Background()))
}
