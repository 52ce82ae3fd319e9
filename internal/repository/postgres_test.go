package repository

import (
	"context"
	"os"
	"testing"
	"time"
)

func setupTestRepository(t *testing.T) *PostgresObservations {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewPostgresObservations(ctx, databaseURL)
	if err != nil {
		t.Fatalf("Failed to create test repository: %v", err)
	}

	return repo
}

func TestLoadObservations(t *testing.T) {
	repo := setupTestRepository(t)
	defer repo.Close()

	obs, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(obs) == 0 {
		t.Log("Warning: no observations returned. Database may be empty.")
		return
	}

	t.Logf("Successfully loaded %d observations", len(obs))

	for i, o := range obs {
		if o.FacilityName == "" {
			t.Errorf("observation %d has empty facility name", i)
		}
		if o.ObservedAt.Location() != time.UTC {
			t.Errorf("observation %d not normalised to UTC", i)
		}
		if i > 0 && o.ObservedAt.Before(obs[i-1].ObservedAt) {
			t.Fatalf("observations not ordered by time at index %d", i)
		}
	}
}
