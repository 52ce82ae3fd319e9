package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks database connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database and snapshot availability
type HealthHandler struct {
	db        Pinger
	snapshots InsightSource
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, snapshots InsightSource) *HealthHandler {
	return &HealthHandler{db: db, snapshots: snapshots}
}

// GetHealth handles GET /health
// Returns 503 when the database is unreachable. A missing snapshot is
// reported but does not fail the check, since the first batch run may not
// have happened yet.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status":    "ok",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "error"
		body["database"] = "disconnected"
		body["error"] = err.Error()
	}

	if records, publishedAt, err := h.snapshots.Records(); err != nil {
		body["snapshot"] = "missing"
	} else {
		body["snapshot"] = "loaded"
		body["records"] = len(records)
		body["publishedAt"] = publishedAt.UTC()
	}

	writeJSON(w, status, body)
}
