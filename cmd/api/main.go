package main

import (
	"context"
	"log"
	"net/http"
	"path/filepath"

	"github.com/park-ride-insights/occupancy/internal/config"
	"github.com/park-ride-insights/occupancy/internal/db"
	"github.com/park-ride-insights/occupancy/internal/handlers"
	"github.com/park-ride-insights/occupancy/internal/snapshot"
)

func main() {
	config.LoadEnvFiles(".")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Connecting to SQLite database: %s", cfg.DatabasePath)
	database, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite database: %v", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	insightsPath := filepath.Join(cfg.OutputDir, snapshot.InsightsFile)
	router := handlers.NewRouter(handlers.RouterOptions{
		Snapshots:   handlers.NewSnapshotStore(insightsPath),
		DB:          database,
		Runs:        database,
		Metrics:     handlers.NewMetrics(),
		CORSOrigins: cfg.CORSOrigins,
	})

	log.Printf("API server starting on :%s (snapshot %s)", cfg.Port, insightsPath)
	log.Println("Endpoints:")
	log.Println("  GET /api/insights?facility=&status=&day=")
	log.Println("  GET /api/insights/facilities")
	log.Println("  GET /api/runs/latest")
	log.Println("  GET /health")
	log.Println("  GET /metrics")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
