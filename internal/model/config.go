package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all runtime configuration
type Config struct {
	Graph        GraphConfig       `yaml:"graph" mapstructure:"graph"`
	GeoNames     GeoNamesConfig    `yaml:"geonames" mapstructure:"geonames"`
	Wikidata     WikidataConfig    `yaml:"wikidata" mapstructure:"wikidata"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Retry        RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Thresholds   Thresholds        `yaml:"thresholds" mapstructure:"thresholds"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// GraphConfig selects and configures the graph store
type GraphConfig struct {
	Backend   string        `yaml:"backend" mapstructure:"backend" validate:"oneof=sparql sqlite memory"`
	Endpoint  string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Backend sparql"`
	Username  string        `yaml:"username" mapstructure:"username"`
	Password  string        `yaml:"password" mapstructure:"password"`
	Path      string        `yaml:"path" mapstructure:"path" validate:"required_if=Backend sqlite"`
	DateGraph string        `yaml:"date_graph" mapstructure:"date_graph"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// GeoNamesConfig configures the geographic lookup
type GeoNamesConfig struct {
	BaseURL   string   `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Usernames []string `yaml:"usernames" mapstructure:"usernames" validate:"dive,required"`
}

// WikidataConfig configures the biographical lookup
type WikidataConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	Language string `yaml:"language" mapstructure:"language" validate:"required"`
}

// HTTPConfig holds outbound HTTP settings shared by the lookups
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gt=0"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig holds enrichment cache settings
type CacheConfig struct {
	// Enabled allows cached records to answer lookups. Successful
	// lookups are stored either way.
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend   string        `yaml:"backend" mapstructure:"backend" validate:"oneof=memory file badger"`
	Path      string        `yaml:"path" mapstructure:"path" validate:"required_unless=Backend memory"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl" validate:"gte=0"`
}

// RateLimitConfig holds per-host request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64            `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	BurstSize         int                `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=1"`
	HostRates         map[string]float64 `yaml:"host_rates,omitempty" mapstructure:"host_rates"`
}

// ConcurrencyConfig bounds the worker pools
type ConcurrencyConfig struct {
	EnrichWorkers int `yaml:"enrich_workers" mapstructure:"enrich_workers" validate:"gte=1"`
	// PairWorkers of 0 means one per CPU.
	PairWorkers int `yaml:"pair_workers" mapstructure:"pair_workers" validate:"gte=0"`
}

// RetryConfig controls backoff for external lookups
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`
	BaseDelay    time.Duration `yaml:"base_delay" mapstructure:"base_delay" validate:"gte=0"`
	MaxDelay     time.Duration `yaml:"max_delay" mapstructure:"max_delay" validate:"gte=0"`
	QuotaSleep   time.Duration `yaml:"quota_sleep" mapstructure:"quota_sleep" validate:"gte=0"`
	QuotaRetries int           `yaml:"quota_retries" mapstructure:"quota_retries" validate:"gte=0"`
}

// Thresholds are the decision-table parameters per entity kind
type Thresholds struct {
	Place      PlaceThresholds      `yaml:"place" mapstructure:"place"`
	Person     PersonThresholds     `yaml:"person" mapstructure:"person"`
	Earthquake EarthquakeThresholds `yaml:"earthquake" mapstructure:"earthquake"`
}

type PlaceThresholds struct {
	LabelIdentical int     `yaml:"label_identical" mapstructure:"label_identical" validate:"gte=0,lte=100"`
	CoordinateKm   float64 `yaml:"coordinate_km" mapstructure:"coordinate_km" validate:"gte=0"`
}

type PersonThresholds struct {
	LabelIdentical int `yaml:"label_identical" mapstructure:"label_identical" validate:"gte=0,lte=100"`
	LabelClose     int `yaml:"label_close" mapstructure:"label_close" validate:"gte=0,lte=100"`
	YearTolerance  int `yaml:"year_tolerance" mapstructure:"year_tolerance" validate:"gte=0"`
	// NameDifference is the number of differing words still tolerated
	// for a containment match.
	NameDifference int `yaml:"name_difference" mapstructure:"name_difference" validate:"gte=0"`
}

type EarthquakeThresholds struct {
	LabelIdentical       int           `yaml:"label_identical" mapstructure:"label_identical" validate:"gte=0,lte=100"`
	LabelWithExactDate   int           `yaml:"label_with_exact_date" mapstructure:"label_with_exact_date" validate:"gte=0,lte=100"`
	LabelWithYear        int           `yaml:"label_with_year" mapstructure:"label_with_year" validate:"gte=0,lte=100"`
	LabelClose           int           `yaml:"label_close" mapstructure:"label_close" validate:"gte=0,lte=100"`
	CoordinateKm         float64       `yaml:"coordinate_km" mapstructure:"coordinate_km" validate:"gte=0"`
	HourTolerance        time.Duration `yaml:"hour_tolerance" mapstructure:"hour_tolerance" validate:"gte=0"`
	MonthTolerance       int           `yaml:"month_tolerance" mapstructure:"month_tolerance" validate:"gte=0"`
	YearTolerance        int           `yaml:"year_tolerance" mapstructure:"year_tolerance" validate:"gte=0"`
	MonthAloneCloseMatch bool          `yaml:"month_alone_close_match" mapstructure:"month_alone_close_match"`
}

// LoggingConfig controls structured log output
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" mapstructure:"format" validate:"oneof=text json"`
	File       string `yaml:"file,omitempty" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			Backend:   "sparql",
			Endpoint:  "http://localhost:8898/sparql",
			Username:  "dba",
			Password:  "dba",
			Path:      "quakelink.db",
			DateGraph: "http://localhost:8890/dataspace",
			Timeout:   60 * time.Second,
		},
		GeoNames: GeoNamesConfig{
			BaseURL: "http://api.geonames.org",
		},
		Wikidata: WikidataConfig{
			Endpoint: "https://query.wikidata.org/sparql",
			Language: "en",
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "quakelink/0.1 (+https://github.com/ppiankov/quakelink)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: false,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Backend:   "file",
			Path:      "enrichment_cache.json",
			MemoryTTL: 0,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 1.0,
			BurstSize:         1,
		},
		Concurrency: ConcurrencyConfig{
			EnrichWorkers: 4,
			PairWorkers:   0,
		},
		Retry: RetryConfig{
			MaxRetries:   3,
			BaseDelay:    time.Second,
			MaxDelay:     time.Minute,
			QuotaSleep:   time.Hour,
			QuotaRetries: 1,
		},
		Thresholds: DefaultThresholds(),
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// DefaultThresholds returns the decision thresholds observed in the catalogue work
func DefaultThresholds() Thresholds {
	return Thresholds{
		Place: PlaceThresholds{
			LabelIdentical: 95,
			CoordinateKm:   1,
		},
		Person: PersonThresholds{
			LabelIdentical: 95,
			LabelClose:     85,
			YearTolerance:  2,
			NameDifference: 1,
		},
		Earthquake: EarthquakeThresholds{
			LabelIdentical:       95,
			LabelWithExactDate:   85,
			LabelWithYear:        90,
			LabelClose:           80,
			CoordinateKm:         50,
			HourTolerance:        3 * time.Hour,
			MonthTolerance:       1,
			YearTolerance:        1,
			MonthAloneCloseMatch: true,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
