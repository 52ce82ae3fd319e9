package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/park-ride-insights/occupancy/internal/db"
)

// RunRepository reads pipeline run bookkeeping
type RunRepository interface {
	LatestRun(ctx context.Context) (*db.Run, error)
}

// RunsHandler handles HTTP requests for batch run history
type RunsHandler struct {
	repo RunRepository
}

// NewRunsHandler creates a new handler with the given repository
func NewRunsHandler(repo RunRepository) *RunsHandler {
	return &RunsHandler{repo: repo}
}

// GetLatestRun handles GET /api/runs/latest
func (h *RunsHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	run, err := h.repo.LatestRun(ctx)
	if errors.Is(err, db.ErrNoRuns) {
		writeError(w, http.StatusNotFound, "No pipeline runs recorded", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get latest run", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, run)
}
