package handlers

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/park-ride-insights/occupancy/internal/insights"
	"github.com/park-ride-insights/occupancy/internal/snapshot"
)

// SnapshotStore serves the published insights file, reloading it when the
// batch job replaces it.
type SnapshotStore struct {
	path string

	mu       sync.RWMutex
	records  []insights.Record
	modTime  time.Time
	loadedAt time.Time
}

// NewSnapshotStore creates a store for the insights file at path. The file
// is read lazily, so it may not exist yet.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Records returns the current snapshot and the time it was published.
func (s *SnapshotStore) Records() ([]insights.Record, time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("insights snapshot unavailable: %w", err)
	}

	s.mu.RLock()
	fresh := !s.loadedAt.IsZero() && info.ModTime().Equal(s.modTime)
	records, modTime := s.records, s.modTime
	s.mu.RUnlock()
	if fresh {
		return records, modTime, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another request may have reloaded while we waited.
	if !s.loadedAt.IsZero() && info.ModTime().Equal(s.modTime) {
		return s.records, s.modTime, nil
	}

	loaded, err := snapshot.ReadInsights(s.path)
	if err != nil {
		if s.records != nil {
			log.Printf("Snapshot: reload failed, serving previous snapshot: %v", err)
			return s.records, s.modTime, nil
		}
		return nil, time.Time{}, err
	}
	s.records = loaded
	s.modTime = info.ModTime()
	s.loadedAt = time.Now()
	log.Printf("Snapshot: loaded %d insight records from %s", len(loaded), s.path)
	return s.records, s.modTime, nil
}
