// Package config holds runtime configuration for the Polymarket data library.
//
// Every tunable that used to be process-wide state (cache root, rate-limit
// delay, base URLs) lives here and is passed explicitly to the components
// that need it.
package config

import "time"

// Config is the root configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig holds remote endpoint settings.
type APIConfig struct {
	GammaURL       string        `yaml:"gamma_url"` // events endpoint base
	CLOBURL        string        `yaml:"clob_url"`  // prices-history endpoint base
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	RateLimitDelay time.Duration `yaml:"rate_limit_delay"` // fixed post-fetch delay
	MaxRetries     int           `yaml:"max_retries"`
}

// CacheConfig holds the on-disk cache location.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// FetchConfig holds pagination, chunking and guardrail settings.
type FetchConfig struct {
	PageSize         int `yaml:"page_size"`
	ShortPageRetries int `yaml:"short_page_retries"`
	ChunkDays        int `yaml:"chunk_days"`

	// Guardrails: larger pulls require an explicit force flag.
	MaxDaysWithoutForce int `yaml:"max_days_without_force"`
	MaxEventsInMemory   int `yaml:"max_events_in_memory"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig holds the optional Prometheus listener settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
	Path string `yaml:"path"`
}
