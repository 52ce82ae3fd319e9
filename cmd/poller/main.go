package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park-ride-insights/occupancy/internal/config"
	"github.com/park-ride-insights/occupancy/internal/db"
	"github.com/park-ride-insights/occupancy/internal/observation"
	"github.com/park-ride-insights/occupancy/internal/realtime/carpark"
)

func main() {
	log.Println("Starting car park poller...")

	config.LoadEnvFiles(".")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.TfNSWAPIKey == "" {
		log.Fatal("TFNSW_API_KEY is required")
	}
	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	log.Printf("Config loaded: poll_interval=%v, facilities=%d, retention=%v", cfg.PollInterval, len(cfg.FacilityIDs), retention)

	database, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("Database initialized")

	var archive carpark.Archiver
	if cfg.ArchiveCSV {
		archive = observation.NewArchive(cfg.RawDir)
	}
	poller := carpark.NewPoller(database, archive, carpark.Options{
		BaseURL:      cfg.TfNSWCarparkURL,
		APIKey:       cfg.TfNSWAPIKey,
		FacilityIDs:  cfg.FacilityIDs,
		RequestDelay: 200 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Running initial poll...")
	pollOnce(ctx, poller, database, retention)

	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				pollOnce(ctx, poller, database, retention)
			case <-ctx.Done():
				log.Println("Polling loop stopped")
				return
			}
		}
	}()

	log.Printf("Poller running (poll every %v)", cfg.PollInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()

	time.Sleep(100 * time.Millisecond)
	log.Println("Goodbye!")
}

func pollOnce(ctx context.Context, poller *carpark.Poller, database *db.DB, retention time.Duration) {
	if err := poller.Poll(ctx); err != nil {
		log.Printf("Carpark poll error: %v", err)
	}

	if err := database.Cleanup(ctx, time.Now(), retention); err != nil {
		log.Printf("Cleanup error: %v", err)
	}
}
