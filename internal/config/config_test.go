package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "testdata")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "testdata/occupancy.db", cfg.DatabasePath)
	assert.Equal(t, "sqlite", cfg.ObservationSource)
	assert.Equal(t, "testdata/raw", cfg.RawDir)
	assert.Equal(t, "testdata/processed", cfg.OutputDir)
	assert.Equal(t, "Australia/Sydney", cfg.Timezone)
	assert.Equal(t, 4, cfg.AggregateShards)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Len(t, cfg.FacilityIDs, 39)
	assert.Equal(t, DefaultThresholds(), cfg.Thresholds)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OBSERVATION_SOURCE", "CSV")
	t.Setenv("AGGREGATE_SHARDS", "8")
	t.Setenv("FACILITY_IDS", "6, 7 ,,486")
	t.Setenv("DECAY_RATE", "0.9")
	t.Setenv("LATE_LABEL", "Late")
	t.Setenv("POLL_INTERVAL", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.ObservationSource)
	assert.Equal(t, 8, cfg.AggregateShards)
	assert.Equal(t, []string{"6", "7", "486"}, cfg.FacilityIDs)
	assert.Equal(t, 0.9, cfg.Thresholds.DecayRate)
	assert.Equal(t, "Late", cfg.Thresholds.LateLabel)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval, "unparseable values fall back to defaults")
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Run("unknown source", func(t *testing.T) {
		t.Setenv("OBSERVATION_SOURCE", "kafka")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv("OBSERVATION_SOURCE", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("zero shards", func(t *testing.T) {
		t.Setenv("AGGREGATE_SHARDS", "0")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad threshold", func(t *testing.T) {
		t.Setenv("FULL_PROB_THRESHOLD", "1.5")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadTuningOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decay_rate: 0.9\nrecovery_spots: 25\n"), 0644))

	th, err := LoadTuning(path, DefaultThresholds())
	require.NoError(t, err)

	want := DefaultThresholds()
	want.DecayRate = 0.9
	want.RecoverySpots = 25
	assert.Equal(t, want, th)
}

func TestLoadTuningThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yml")
	require.NoError(t, os.WriteFile(path, []byte("floor_weight: 0.1\nconfidence_level: 0.95\n"), 0644))

	t.Setenv("TUNING_FILE", path)
	t.Setenv("CONFIDENCE_LEVEL", "0.9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Thresholds.FloorWeight)
	assert.Equal(t, 0.9, cfg.Thresholds.ConfidenceLevel, "environment wins over the tuning file")
}

func TestLoadTuningErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTuning(filepath.Join(dir, "tuning.json"), DefaultThresholds())
	assert.Error(t, err)

	_, err = LoadTuning(filepath.Join(dir, "missing.yaml"), DefaultThresholds())
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("decay_rate: 1.5\n"), 0644))
	_, err = LoadTuning(bad, DefaultThresholds())
	assert.Error(t, err)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OCC_TEST_VALUE=base\nOCC_TEST_ONLY_BASE=yes\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("OCC_TEST_VALUE=local\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("OCC_TEST_VALUE")
		os.Unsetenv("OCC_TEST_ONLY_BASE")
	})

	LoadEnvFiles(dir)
	assert.Equal(t, "local", os.Getenv("OCC_TEST_VALUE"))
	assert.Equal(t, "yes", os.Getenv("OCC_TEST_ONLY_BASE"))
}
