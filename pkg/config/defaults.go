package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultGammaURL            = "https://gamma-api.polymarket.com"
	DefaultCLOBURL             = "https://clob.polymarket.com"
	DefaultUserAgent           = "polymarket-data/0.1.0"
	DefaultAPITimeout          = 25 * time.Second
	DefaultRateLimitDelay      = 100 * time.Millisecond
	DefaultMaxRetries          = 3
	DefaultCacheDir            = "data/cache"
	DefaultPageSize            = 1000
	DefaultShortPageRetries    = 2
	DefaultChunkDays           = 7
	DefaultMaxDaysWithoutForce = 120
	DefaultMaxEventsInMemory   = 200_000
	DefaultLogLevel            = "info"
	DefaultMetricsPath         = "/metrics"
)

func (c *Config) applyDefaults() {
	if c.API.GammaURL == "" {
		c.API.GammaURL = DefaultGammaURL
	}
	if c.API.CLOBURL == "" {
		c.API.CLOBURL = DefaultCLOBURL
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = DefaultUserAgent
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RateLimitDelay == 0 {
		c.API.RateLimitDelay = DefaultRateLimitDelay
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	if c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir
	}

	if c.Fetch.PageSize == 0 {
		c.Fetch.PageSize = DefaultPageSize
	}
	if c.Fetch.ShortPageRetries == 0 {
		c.Fetch.ShortPageRetries = DefaultShortPageRetries
	}
	if c.Fetch.ChunkDays == 0 {
		c.Fetch.ChunkDays = DefaultChunkDays
	}
	if c.Fetch.MaxDaysWithoutForce == 0 {
		c.Fetch.MaxDaysWithoutForce = DefaultMaxDaysWithoutForce
	}
	if c.Fetch.MaxEventsInMemory == 0 {
		c.Fetch.MaxEventsInMemory = DefaultMaxEventsInMemory
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
