// Package config defines service configuration and the layered loader that
// fills it from defaults, an optional YAML file and ACCOLADE_ env vars.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Supported stat sources.
const (
	SourceBallDontLie = "balldontlie"
	SourceBBRef       = "bbref"
)

// Config contains process configuration.
type Config struct {
	// Env tags every log line, e.g. development or production.
	Env string `koanf:"env"`

	// DatabaseURL is a postgres URL; dburl short forms like pg:// are accepted.
	DatabaseURL string `koanf:"database_url"`

	// RedisURL is optional. When empty the read cache is disabled and runs
	// are serialized with an in-process lock.
	RedisURL string `koanf:"redis_url"`

	// HTTPAddr configures the HTTP listen address, e.g. ":8080".
	HTTPAddr string `koanf:"http_addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is json or console.
	LogFormat string `koanf:"log_format"`

	// Timezone decides what "yesterday" means for the daily run.
	Timezone string `koanf:"timezone"`

	// Source selects the stat provider: balldontlie or bbref.
	Source string `koanf:"source"`

	BallDontLieBaseURL  string `koanf:"balldontlie_base_url"`
	BallDontLieAPIKey   string `koanf:"balldontlie_api_key"`
	BallDontLieMaxPages int    `koanf:"balldontlie_max_pages"`

	BBRefBaseURL string  `koanf:"bbref_base_url"`
	BBRefQPS     float64 `koanf:"bbref_qps"`

	// IngestCron is a standard 5-field cron expression evaluated in Timezone.
	IngestCron string `koanf:"ingest_cron"`

	// RunTimeout bounds a single ingestion run.
	RunTimeout time.Duration `koanf:"run_timeout"`

	// CacheTTL bounds how long dashboard reads are served from Redis.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// AwardsSeasonStart and AwardsSeasonEnd bound the official award import
	// by season start year.
	AwardsSeasonStart int `koanf:"awards_season_start"`
	AwardsSeasonEnd   int `koanf:"awards_season_end"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Env:                 "development",
		HTTPAddr:            ":8080",
		LogLevel:            "info",
		LogFormat:           "json",
		Timezone:            "America/New_York",
		Source:              SourceBallDontLie,
		BallDontLieBaseURL:  "https://api.balldontlie.io/v1",
		BallDontLieMaxPages: 25,
		BBRefBaseURL:        "https://www.basketball-reference.com",
		BBRefQPS:            0.3,
		IngestCron:          "0 6 * * *",
		RunTimeout:          10 * time.Minute,
		CacheTTL:            5 * time.Minute,
		AwardsSeasonStart:   2015,
		AwardsSeasonEnd:     time.Now().Year(),
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// Validate checks required fields and enumerations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrMissingDatabaseURL
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: http_addr must not be empty", ErrInvalidConfig)
	}
	switch c.Source {
	case SourceBallDontLie, SourceBBRef:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	if c.BBRefQPS < 0 {
		return fmt.Errorf("%w: bbref_qps must not be negative", ErrInvalidConfig)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("%w: run_timeout must be positive", ErrInvalidConfig)
	}
	if c.AwardsSeasonStart > c.AwardsSeasonEnd {
		return fmt.Errorf("%w: awards_season_start after awards_season_end", ErrInvalidConfig)
	}
	return nil
}
