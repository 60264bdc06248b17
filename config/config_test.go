package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  dsn: "test.db"
feed:
  url: "https://example.com/incidents"
  api_key: "key"
units:
  enabled: true
hotcars:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)

	assert.Equal(t, time.Minute, cfg.Units.Interval)
	assert.Equal(t, 4*time.Hour, cfg.Units.SummaryInterval)
	assert.Contains(t, cfg.Units.BrokenSymptoms, "MINOR REPAIR")
	assert.Contains(t, cfg.Units.InspectionSymptoms, "SAFETY INSPECTION")
	assert.Contains(t, cfg.Units.OffSymptoms, "TURNED OFF/WALKER")

	assert.Equal(t, 2*time.Minute, cfg.HotCars.Interval)
	assert.Equal(t, 90*time.Second, cfg.HotCars.MentionsMinInterval)
	assert.Equal(t, 30, cfg.HotCars.DedupWindowDays)
	assert.Equal(t, "MetroHotCars", cfg.HotCars.OwnAccount)
	assert.Equal(t, "wmata", cfg.HotCars.AuthorityAccount)
	assert.Equal(t, []string{"series"}, cfg.HotCars.ExcludedWords)
	assert.Equal(t, [2]int{3000, 3289}, cfg.HotCars.CarRanges["3"])
	assert.Len(t, cfg.HotCars.SearchQueries, 4)

	assert.Equal(t, 10, cfg.Notify.MaxPerTick)
	assert.Equal(t, float64(1), cfg.Notify.RatePerSec)
	assert.Equal(t, 1, cfg.Notify.Burst)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: "postgres"
  dsn: "host=localhost"
units:
  interval_seconds: 30
  summary_hours: 8
  broken_symptoms: ["OUT OF ORDER"]
hotcars:
  mentions_min_seconds: 120
  dedup_window_days: 14
  car_ranges:
    "7": [7000, 7099]
notify:
  max_per_tick: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Units.Interval)
	assert.Equal(t, 8*time.Hour, cfg.Units.SummaryInterval)
	assert.Equal(t, []string{"OUT OF ORDER"}, cfg.Units.BrokenSymptoms)
	assert.Equal(t, 120*time.Second, cfg.HotCars.MentionsMinInterval)
	assert.Equal(t, 14, cfg.HotCars.DedupWindowDays)
	assert.Equal(t, [2]int{7000, 7099}, cfg.HotCars.CarRanges["7"])
	assert.Equal(t, 3, cfg.Notify.MaxPerTick)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
