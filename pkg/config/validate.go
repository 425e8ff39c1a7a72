package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.API.GammaURL == "" {
		return errors.New("api.gamma_url is required")
	}
	if c.API.CLOBURL == "" {
		return errors.New("api.clob_url is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be > 0")
	}
	if c.API.RateLimitDelay < 0 {
		return errors.New("api.rate_limit_delay must be >= 0")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Cache.Dir == "" {
		return errors.New("cache.dir is required")
	}

	if c.Fetch.PageSize < 1 {
		return errors.New("fetch.page_size must be >= 1")
	}
	if c.Fetch.ShortPageRetries < 0 {
		return errors.New("fetch.short_page_retries must be >= 0")
	}
	if c.Fetch.ChunkDays < 1 {
		return errors.New("fetch.chunk_days must be >= 1")
	}
	if c.Fetch.MaxDaysWithoutForce < 1 {
		return errors.New("fetch.max_days_without_force must be >= 1")
	}
	if c.Fetch.MaxEventsInMemory < 1 {
		return errors.New("fetch.max_events_in_memory must be >= 1")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	return nil
}
