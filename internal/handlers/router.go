package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RouterOptions wires the API's dependencies.
type RouterOptions struct {
	Snapshots   InsightSource
	DB          Pinger
	Runs        RunRepository
	Metrics     *Metrics
	CORSOrigins []string
}

// NewRouter builds the read-only insights API.
func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	healthHandler := NewHealthHandler(opts.DB, opts.Snapshots)
	insightsHandler := NewInsightsHandler(opts.Snapshots, opts.Metrics)
	runsHandler := NewRunsHandler(opts.Runs)

	r.Get("/health", healthHandler.GetHealth)
	r.Get("/api/insights", insightsHandler.GetInsights)
	r.Get("/api/insights/facilities", insightsHandler.GetFacilities)
	r.Get("/api/runs/latest", runsHandler.GetLatestRun)

	return r
}
