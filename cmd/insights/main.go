package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/park-ride-insights/occupancy/internal/config"
	"github.com/park-ride-insights/occupancy/internal/db"
	"github.com/park-ride-insights/occupancy/internal/insights"
	"github.com/park-ride-insights/occupancy/internal/observation"
	"github.com/park-ride-insights/occupancy/internal/pipeline"
	"github.com/park-ride-insights/occupancy/internal/repository"
)

func main() {
	var (
		envDir  = flag.String("env-dir", ".", "directory holding .env and .env.local")
		source  = flag.String("source", "", "observation source: csv, sqlite or postgres (overrides OBSERVATION_SOURCE)")
		nowFlag = flag.String("now", "", "recency reference time, RFC3339 (default: current time)")
	)
	flag.Parse()

	config.LoadEnvFiles(*envDir)
	if *source != "" {
		os.Setenv("OBSERVATION_SOURCE", *source)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	now := time.Now()
	if *nowFlag != "" {
		now, err = time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			log.Fatalf("Invalid -now value: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	database, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	var src observation.Source
	switch cfg.ObservationSource {
	case "csv":
		src = observation.NewCSVSource(cfg.RawDir)
	case "sqlite":
		src = database
	case "postgres":
		pg, err := repository.NewPostgresObservations(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pg.Close()
		src = pg
	}

	names, err := insights.LoadNames(cfg.NamesFile)
	if err != nil {
		log.Fatalf("Failed to load facility names: %v", err)
	}

	log.Printf("Running insights pipeline (source=%s, now=%s, shards=%d)",
		cfg.ObservationSource, now.UTC().Format(time.RFC3339), cfg.AggregateShards)

	res, err := pipeline.Run(ctx, pipeline.Options{
		Source:      src,
		SourceName:  cfg.ObservationSource,
		HolidayFile: cfg.HolidayFile,
		Timezone:    cfg.Timezone,
		Names:       names,
		Thresholds:  cfg.Thresholds,
		Shards:      cfg.AggregateShards,
		OutputDir:   cfg.OutputDir,
		Now:         now,
		Runs:        database,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrMissingInput) {
			log.Printf("Pipeline aborted, previous snapshot left in place: %v", err)
			os.Exit(2)
		}
		log.Fatalf("Pipeline failed: %v", err)
	}

	log.Printf("Wrote %s and %s (%d records, %d facilities, %d rarely full, %d recover late)",
		res.InsightsPath, res.StatsPath, len(res.Records), res.Summary.Facilities,
		res.Summary.RarelyFullRecords, res.Summary.LateRecords)
}
