package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Feed       FeedConfig       `yaml:"feed"`
	Social     SocialConfig     `yaml:"social"`
	Units      UnitsConfig      `yaml:"units"`
	HotCars    HotCarsConfig    `yaml:"hotcars"`
	Push       PushConfig       `yaml:"push"`
	Notify     NotifyConfig     `yaml:"notify"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// FeedConfig describes the transit authority incident feed.
type FeedConfig struct {
	URL     string            `yaml:"url"`
	APIKey  string            `yaml:"api_key"`
	Headers map[string]string `yaml:"headers"`
}

// SocialConfig holds the social platform API credentials. Missing
// credentials are fatal at startup only when a tracker is configured to
// post live.
type SocialConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// UnitsConfig drives the escalator/elevator tracker.
//
// Symptom descriptions are classified into categories by configuration
// rather than code, so a new feed symptom can be onboarded without a
// release.
type UnitsConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Live               bool          `yaml:"live"` // actually post notifications
	IntervalSeconds    int           `yaml:"interval_seconds"`
	Interval           time.Duration `yaml:"-"`
	SummaryHours       int           `yaml:"summary_hours"`
	SummaryInterval    time.Duration `yaml:"-"`
	BrokenSymptoms     []string      `yaml:"broken_symptoms"`
	InspectionSymptoms []string      `yaml:"inspection_symptoms"`
	OffSymptoms        []string      `yaml:"off_symptoms"`
	URLBase            string        `yaml:"url_base"`
}

// HotCarsConfig drives the hot car report tracker.
type HotCarsConfig struct {
	Enabled             bool              `yaml:"enabled"`
	Live                bool              `yaml:"live"`
	IntervalSeconds     int               `yaml:"interval_seconds"`
	Interval            time.Duration     `yaml:"-"`
	OwnAccount          string            `yaml:"own_account"`
	AuthorityAccount    string            `yaml:"authority_account"`
	SearchQueries       []string          `yaml:"search_queries"`
	ExcludedWords       []string          `yaml:"excluded_words"`
	MentionsMinSeconds  int               `yaml:"mentions_min_seconds"`
	MentionsMinInterval time.Duration     `yaml:"-"`
	DedupWindowDays     int               `yaml:"dedup_window_days"`
	CarRanges           map[string][2]int `yaml:"car_ranges"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// NotifyConfig bounds outbound notification volume.
type NotifyConfig struct {
	MaxPerTick int     `yaml:"max_per_tick"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

// WorkerPoolConfig holds the configuration for the push worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}

	if cfg.Units.IntervalSeconds <= 0 {
		cfg.Units.IntervalSeconds = 60
	}
	cfg.Units.Interval = time.Duration(cfg.Units.IntervalSeconds) * time.Second

	if cfg.Units.SummaryHours <= 0 {
		cfg.Units.SummaryHours = 4
	}
	cfg.Units.SummaryInterval = time.Duration(cfg.Units.SummaryHours) * time.Hour

	if len(cfg.Units.BrokenSymptoms) == 0 {
		cfg.Units.BrokenSymptoms = defaultBrokenSymptoms
	}
	if len(cfg.Units.InspectionSymptoms) == 0 {
		cfg.Units.InspectionSymptoms = defaultInspectionSymptoms
	}
	if len(cfg.Units.OffSymptoms) == 0 {
		cfg.Units.OffSymptoms = defaultOffSymptoms
	}

	if cfg.HotCars.IntervalSeconds <= 0 {
		cfg.HotCars.IntervalSeconds = 120
	}
	cfg.HotCars.Interval = time.Duration(cfg.HotCars.IntervalSeconds) * time.Second

	// The mentions endpoint is rate limited upstream to roughly once per
	// minute, so the self-imposed floor must stay above that.
	if cfg.HotCars.MentionsMinSeconds <= 0 {
		cfg.HotCars.MentionsMinSeconds = 90
	}
	cfg.HotCars.MentionsMinInterval = time.Duration(cfg.HotCars.MentionsMinSeconds) * time.Second

	if cfg.HotCars.DedupWindowDays <= 0 {
		cfg.HotCars.DedupWindowDays = 30
	}
	if cfg.HotCars.OwnAccount == "" {
		cfg.HotCars.OwnAccount = "MetroHotCars"
	}
	if cfg.HotCars.AuthorityAccount == "" {
		cfg.HotCars.AuthorityAccount = "wmata"
	}
	if len(cfg.HotCars.SearchQueries) == 0 {
		cfg.HotCars.SearchQueries = []string{
			"wmata hotcar", "wmata hot car", "wmata hotcars", "wmata hot cars",
		}
	}
	if len(cfg.HotCars.ExcludedWords) == 0 {
		cfg.HotCars.ExcludedWords = []string{"series"}
	}
	if len(cfg.HotCars.CarRanges) == 0 {
		cfg.HotCars.CarRanges = defaultCarRanges
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Notify.MaxPerTick <= 0 {
		cfg.Notify.MaxPerTick = 10
	}
	if cfg.Notify.RatePerSec <= 0 {
		cfg.Notify.RatePerSec = 1
	}
	if cfg.Notify.Burst <= 0 {
		cfg.Notify.Burst = 1
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}

// Symptom descriptions seen on the authority's feed, by category. A feed
// symptom matching none of these lists cannot be classified, and the
// affected unit is skipped for the tick.
var (
	defaultBrokenSymptoms = []string{
		"MINOR REPAIR",
		"MAJOR REPAIR",
		"BROKEN",
		"SERVICE CALL",
	}
	defaultInspectionSymptoms = []string{
		"SAFETY INSPECTION",
		"PREV. MAINT. INSPECTION",
		"SCHEDULED SUPPORT",
	}
	defaultOffSymptoms = []string{
		"TURNED OFF/WALKER",
		"REHAB/MODERNIZATION",
		"WEATHER RELATED",
	}
)

// Revenue car number ranges, inclusive, keyed by the leading digit.
var defaultCarRanges = map[string][2]int{
	"1": {1000, 1299},
	"2": {2000, 2075},
	"3": {3000, 3289},
	"4": {4000, 4099},
	"5": {5000, 5191},
	"6": {6000, 6183},
}
