// Package collect is the high-level entry point for bulk data pulls. It
// wires the pagination, caching and guardrail pieces together: date-span
// and accumulation caps that fail fast unless explicitly overridden, a
// consolidated-cache fast path, and finalization of completed runs.
package collect

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"polymarket-data/pkg/cache"
	"polymarket-data/pkg/config"
	"polymarket-data/pkg/events"
	"polymarket-data/pkg/record"
)

// Collector orchestrates full event pulls on top of the events fetcher.
type Collector struct {
	fetcher *events.Fetcher
	cfg     config.FetchConfig
	logger  zerolog.Logger
}

// New creates a collector. Zero-valued guardrail settings in cfg fall back
// to the package defaults.
func New(fetcher *events.Fetcher, cfg config.FetchConfig, logger zerolog.Logger) *Collector {
	if cfg.PageSize <= 0 {
		cfg.PageSize = config.DefaultPageSize
	}
	if cfg.MaxDaysWithoutForce <= 0 {
		cfg.MaxDaysWithoutForce = config.DefaultMaxDaysWithoutForce
	}
	if cfg.MaxEventsInMemory <= 0 {
		cfg.MaxEventsInMemory = config.DefaultMaxEventsInMemory
	}
	return &Collector{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger.With().Str("component", "collect").Logger(),
	}
}

// ClosedEventsRequest describes one bulk pull of closed events.
type ClosedEventsRequest struct {
	// StartDateMin is the lower bound for event close dates. Required.
	StartDateMin time.Time

	// EndDateMax is the optional upper bound. The zero value means open
	// ended; the date-span guardrail only applies when both bounds are set.
	EndDateMax time.Time

	// TagID optionally restricts the pull to one category tag.
	TagID string

	// Closed filters by closed state; nil defaults to true.
	Closed *bool

	// MaxPages caps pagination. A capped run is never finalized because
	// it may not have reached the end of the data.
	MaxPages int

	// ForceLarge overrides both the date-span and the accumulation
	// guardrail for intentionally large pulls.
	ForceLarge bool

	// Extra carries additional stable query parameters.
	Extra map[string]string
}

// toISO formats t as ISO8601 with a trailing Z, the format the events
// endpoint expects for date bounds.
func toISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "Z"
}

// validateRange enforces the date-span guardrail before any network
// activity. Open-ended ranges are not checked here; the accumulation cap
// covers them during iteration.
func (c *Collector) validateRange(req ClosedEventsRequest) error {
	if req.StartDateMin.IsZero() || req.EndDateMax.IsZero() || req.ForceLarge {
		return nil
	}
	days := int(req.EndDateMax.Sub(req.StartDateMin).Hours()/24) + 1
	if days > c.cfg.MaxDaysWithoutForce {
		return fmt.Errorf(
			"requested range spans %d days (> %d); set ForceLarge to confirm an intentional large pull",
			days, c.cfg.MaxDaysWithoutForce)
	}
	return nil
}

func (c *Collector) query(req ClosedEventsRequest) events.Query {
	closed := true
	if req.Closed != nil {
		closed = *req.Closed
	}
	ascending := true

	q := events.Query{
		Closed:       &closed,
		Ascending:    &ascending,
		StartDateMin: toISO(req.StartDateMin),
		TagID:        req.TagID,
		Extra:        req.Extra,
	}
	if !req.EndDateMax.IsZero() {
		q.EndDateMax = toISO(req.EndDateMax)
	}
	return q
}

// ClosedEvents fetches all closed events in the requested range.
//
// A consolidated cache from a previously completed run is served directly,
// skipping pagination entirely. Otherwise pages are pulled through the
// resumable page cache and accumulated, subject to the in-memory guardrail.
// A run that reaches the natural end of the data without a page cap is
// finalized so the next identical pull takes the fast path.
func (c *Collector) ClosedEvents(ctx context.Context, req ClosedEventsRequest) ([]record.Record, error) {
	if req.StartDateMin.IsZero() {
		return nil, fmt.Errorf("start date is required")
	}
	if err := c.validateRange(req); err != nil {
		return nil, err
	}

	q := c.query(req)
	key := q.Key()

	if consolidated, err := c.fetcher.Store().LoadConsolidated(key); err == nil {
		return consolidated, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, err
	}

	// Always start from 0 so earlier cached pages replay before the run
	// reaches fresh offsets.
	it := c.fetcher.Iterate(ctx, q, events.IterOptions{
		PageSize:         c.cfg.PageSize,
		StartOffset:      events.StartAt(0),
		MaxPages:         req.MaxPages,
		ShortPageRetries: c.cfg.ShortPageRetries,
	})

	var collected []record.Record
	for it.Next() {
		collected = append(collected, it.Page()...)
		if len(collected) >= c.cfg.MaxEventsInMemory && !req.ForceLarge {
			return nil, fmt.Errorf(
				"event accumulation exceeded %d; the date range is too large, set ForceLarge to override",
				c.cfg.MaxEventsInMemory)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	// Only a run that drained the source to a natural end proved the data
	// complete; a page-capped run may have stopped mid-stream.
	if len(collected) > 0 && req.MaxPages == 0 {
		if err := c.fetcher.Store().Finalize(key, collected); err != nil {
			c.logger.Warn().Err(err).
				Str("cache_path", c.fetcher.Store().KeyDir(key)).
				Msg("Failed to save consolidated cache")
		} else {
			c.logger.Info().
				Str("cache_path", c.fetcher.Store().KeyDir(key)).
				Int("events", len(collected)).
				Msg("Saved consolidated cache")
		}
	}

	c.logger.Info().Int("events", len(collected)).Msg("Closed events pull complete")
	return collected, nil
}

// PreviewSize probes the first page of a query without touching the cache
// or progress, so callers can estimate a pull before committing to it. The
// probe asks for a small page and reports how many records came back and
// whether more data likely exists.
func (c *Collector) PreviewSize(ctx context.Context, req ClosedEventsRequest) (Preview, error) {
	if req.StartDateMin.IsZero() {
		return Preview{}, fmt.Errorf("start date is required")
	}

	const probeSize = 100

	params := url.Values{}
	for k, v := range c.query(req).Values() {
		params[k] = v
	}
	params.Set("limit", fmt.Sprintf("%d", probeSize))
	params.Set("offset", "0")

	page, err := c.fetcher.Source().FetchPage(ctx, params)
	if err != nil {
		return Preview{}, fmt.Errorf("preview fetch: %w", err)
	}

	return Preview{
		SampleSize: len(page),
		HasMore:    len(page) == probeSize,
	}, nil
}

// Preview is the result of an uncached first-page probe.
type Preview struct {
	// SampleSize is the number of records on the first page.
	SampleSize int

	// HasMore reports whether the page came back full, implying more data
	// beyond the sample.
	HasMore bool
}
