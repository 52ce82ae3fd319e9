package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the poller, batch job and API
type Config struct {
	// Database
	DatabasePath string
	DatabaseURL  string // Postgres, only used when ObservationSource is "postgres"

	// Inputs
	ObservationSource string // csv, sqlite or postgres
	RawDir            string
	HolidayFile       string
	NamesFile         string
	Timezone          string

	// Outputs
	OutputDir string

	// Batch
	AggregateShards int

	// Polling
	PollInterval    time.Duration
	RetentionDays   int
	ArchiveCSV      bool
	TfNSWAPIKey     string
	TfNSWCarparkURL string
	FacilityIDs     []string

	// API
	Port        string
	CORSOrigins []string

	// Model tuning
	TuningFile string
	Thresholds Thresholds
}

// DefaultFacilityIDs are the Park&Ride car parks published by the TfNSW car park API.
var DefaultFacilityIDs = []string{
	"6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "16", "17", "18", "19",
	"20", "21", "22", "23", "24", "25", "26", "27", "28", "29", "30", "31", "32",
	"33", "34", "35", "36", "37", "38", "39", "486", "487", "488", "489", "490",
}

// LoadEnvFiles loads .env then .env.local (which overrides) from dir, ignoring missing files.
func LoadEnvFiles(dir string) {
	_ = godotenv.Load(dir + "/.env")
	_ = godotenv.Overload(dir + "/.env.local")
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		// Database
		DatabasePath: getEnv("SQLITE_DATABASE", dataDir+"/occupancy.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		// Inputs
		ObservationSource: strings.ToLower(getEnv("OBSERVATION_SOURCE", "sqlite")),
		RawDir:            getEnv("RAW_DIR", dataDir+"/raw"),
		HolidayFile:       getEnv("HOLIDAY_FILE", dataDir+"/config/school_holidays.json"),
		NamesFile:         getEnv("NAMES_FILE", ""),
		Timezone:          getEnv("TIMEZONE", "Australia/Sydney"),

		// Outputs
		OutputDir: getEnv("OUTPUT_DIR", dataDir+"/processed"),

		// Batch
		AggregateShards: getEnvInt("AGGREGATE_SHARDS", 4),

		// Polling
		PollInterval:    time.Duration(getEnvInt("POLL_INTERVAL", 300)) * time.Second,
		RetentionDays:   getEnvInt("RETENTION_DAYS", 0),
		ArchiveCSV:      getEnvBool("ARCHIVE_CSV", true),
		TfNSWAPIKey:     getEnv("TFNSW_API_KEY", ""),
		TfNSWCarparkURL: getEnv("TFNSW_CARPARK_URL", "https://api.transport.nsw.gov.au/v1/carpark"),
		FacilityIDs:     getEnvList("FACILITY_IDS", DefaultFacilityIDs),

		// API
		Port:        getEnv("PORT", "8081"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		TuningFile: getEnv("TUNING_FILE", ""),
	}

	th := DefaultThresholds()
	if cfg.TuningFile != "" {
		loaded, err := LoadTuning(cfg.TuningFile, th)
		if err != nil {
			return nil, err
		}
		th = loaded
	}
	cfg.Thresholds = applyThresholdEnv(th)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would make a run meaningless.
func (c *Config) Validate() error {
	switch c.ObservationSource {
	case "csv", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown OBSERVATION_SOURCE %q (want csv, sqlite or postgres)", c.ObservationSource)
	}
	if c.ObservationSource == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when OBSERVATION_SOURCE=postgres")
	}
	if c.AggregateShards < 1 {
		return fmt.Errorf("AGGREGATE_SHARDS must be at least 1, got %d", c.AggregateShards)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return c.Thresholds.Validate()
}

func applyThresholdEnv(th Thresholds) Thresholds {
	th.DecayRate = getEnvFloat("DECAY_RATE", th.DecayRate)
	th.FloorWeight = getEnvFloat("FLOOR_WEIGHT", th.FloorWeight)
	th.LowObservationThreshold = getEnvInt("LOW_OBSERVATION_THRESHOLD", th.LowObservationThreshold)
	th.FullProbabilityThreshold = getEnvFloat("FULL_PROB_THRESHOLD", th.FullProbabilityThreshold)
	th.RecoverySpots = getEnvFloat("RECOVERY_SPOTS", th.RecoverySpots)
	th.RecoveryProbability = getEnvFloat("RECOVERY_PROB", th.RecoveryProbability)
	th.ConfidenceLevel = getEnvFloat("CONFIDENCE_LEVEL", th.ConfidenceLevel)
	th.LateLabel = getEnv("LATE_LABEL", th.LateLabel)
	return th
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
