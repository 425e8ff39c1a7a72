// Package prices implements the CLOB prices-history client: single-window
// fetches with per-query response caching, four-mode time range resolution,
// chunked long-range pulls, and sub-minute high-frequency reconstruction.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"polymarket-data/pkg/cache"
	"polymarket-data/pkg/client"
	"polymarket-data/pkg/ratelimit"
	"polymarket-data/pkg/series"
)

const (
	// Endpoint is the cache directory prices responses are filed under.
	Endpoint = "trades"

	pricesPath = "/prices-history"
)

// PriceQuery describes one prices-history call. Interval is mutually
// exclusive with StartTs/EndTs; timestamps are unix seconds.
type PriceQuery struct {
	Market      string
	StartTs     int64
	EndTs       int64
	Interval    Interval
	FidelityMin int

	// BypassCache skips the cached response and always hits the API.
	BypassCache bool
}

func (q PriceQuery) validate() error {
	if q.Market == "" {
		return fmt.Errorf("market is required")
	}
	if q.Interval != "" {
		if q.StartTs != 0 || q.EndTs != 0 {
			return fmt.Errorf("interval is mutually exclusive with startTs/endTs")
		}
		if _, err := ParseInterval(string(q.Interval)); err != nil {
			return err
		}
	}
	return nil
}

// key scopes the cache directory by the stable query parameters; the
// concrete time slice lands in the file name instead.
func (q PriceQuery) key() cache.Key {
	params := map[string]string{"market": q.Market}
	if q.Interval != "" {
		params["interval"] = string(q.Interval)
	}
	if q.FidelityMin != 0 {
		params["fidelity"] = strconv.Itoa(q.FidelityMin)
	}
	return cache.Key{Endpoint: Endpoint, Params: params}
}

func (q PriceQuery) fileName() string {
	fidelity := "auto"
	if q.FidelityMin != 0 {
		fidelity = strconv.Itoa(q.FidelityMin)
	}
	if q.Interval != "" {
		return fmt.Sprintf("interval_%s__fidelity_%s.json", q.Interval, fidelity)
	}
	start, end := "none", "none"
	if q.StartTs != 0 {
		start = strconv.FormatInt(q.StartTs, 10)
	}
	if q.EndTs != 0 {
		end = strconv.FormatInt(q.EndTs, 10)
	}
	return fmt.Sprintf("start_%s__end_%s__fidelity_%s.json", start, end, fidelity)
}

func (q PriceQuery) values() url.Values {
	params := url.Values{}
	params.Set("market", q.Market)
	if q.StartTs != 0 {
		params.Set("startTs", strconv.FormatInt(q.StartTs, 10))
	}
	if q.EndTs != 0 {
		params.Set("endTs", strconv.FormatInt(q.EndTs, 10))
	}
	if q.Interval != "" {
		params.Set("interval", string(q.Interval))
	}
	if q.FidelityMin != 0 {
		params.Set("fidelity", strconv.Itoa(q.FidelityMin))
	}
	return params
}

// HistoryRequest describes a price-history pull over one of the four time
// range modes, split into chunks when a concrete window is resolved.
type HistoryRequest struct {
	Market      string
	Interval    Interval
	StartTs     int64
	EndTs       int64
	MaxBars     int
	FidelityMin int

	// ChunkDays bounds each sub-window of a chunked pull. Zero means the
	// default of 7 days.
	ChunkDays int
}

// DefaultChunkDays bounds chunked requests when the caller does not say.
const DefaultChunkDays = 7

// Fetcher pulls price history from the CLOB API with on-disk response
// caching and a fixed post-fetch delay.
type Fetcher struct {
	client  *client.Client
	store   *cache.Store
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
	now     func() time.Time
}

func NewFetcher(c *client.Client, store *cache.Store, limiter *ratelimit.Limiter, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:  c,
		store:   store,
		limiter: limiter,
		logger:  logger.With().Str("component", "prices").Logger(),
		now:     time.Now,
	}
}

// FetchPrices performs one prices-history call, serving from the response
// cache when possible. Corrupt cached responses are refetched. A cache
// write failure is logged but does not fail the call: the points were
// already fetched and are still useful.
func (f *Fetcher) FetchPrices(ctx context.Context, q PriceQuery) ([]series.Point, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	key := q.key()
	name := q.fileName()

	if !q.BypassCache {
		var cached []series.Point
		if err := f.store.ReadFile(key, name, &cached); err == nil {
			f.logger.Debug().
				Str("market", q.Market).
				Str("cache_file", name).
				Int("points", len(cached)).
				Msg("Loaded prices from cache")
			return cached, nil
		}
	}

	f.logger.Info().
		Str("market", q.Market).
		Str("cache_file", name).
		Msg("Fetching prices-history from API")

	var raw json.RawMessage
	if err := f.client.GetJSON(ctx, f.client.CLOBURL(), pricesPath, q.values(), &raw); err != nil {
		return nil, err
	}

	points, err := decodeHistory(raw)
	if err != nil {
		return nil, err
	}
	PointsFetched.Add(float64(len(points)))

	if err := f.store.WriteFile(key, name, points); err != nil {
		f.logger.Warn().Err(err).Str("cache_file", name).Msg("Failed to cache prices response")
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return points, nil
}

// History resolves the request's time range and returns the merged price
// series. An interval request is a single API call. A concrete window is
// split into consecutive chunks; a failed chunk is logged and skipped so
// one bad slice does not discard the rest.
func (f *Fetcher) History(ctx context.Context, req HistoryRequest) ([]series.Point, error) {
	if req.Interval != "" {
		points, err := f.FetchPrices(ctx, PriceQuery{
			Market:      req.Market,
			Interval:    req.Interval,
			FidelityMin: req.FidelityMin,
		})
		if err != nil {
			return nil, err
		}
		return series.Merge(points), nil
	}

	window, err := WindowSpec{
		StartTs:     req.StartTs,
		EndTs:       req.EndTs,
		MaxBars:     req.MaxBars,
		FidelityMin: req.FidelityMin,
	}.Resolve(f.now())
	if err != nil {
		return nil, err
	}

	chunkDays := req.ChunkDays
	if chunkDays <= 0 {
		chunkDays = DefaultChunkDays
	}
	chunks := window.Chunks(int64(chunkDays) * 24 * 3600)

	f.logger.Info().
		Str("market", req.Market).
		Int64("start_ts", window.Start).
		Int64("end_ts", window.End).
		Int("chunks", len(chunks)).
		Msg("Fetching price history in chunks")

	var all []series.Point
	for _, chunk := range chunks {
		points, err := f.FetchPrices(ctx, PriceQuery{
			Market:      req.Market,
			StartTs:     chunk.Start,
			EndTs:       chunk.End,
			FidelityMin: req.FidelityMin,
		})
		if err != nil {
			ChunksFailed.Inc()
			f.logger.Warn().Err(err).
				Str("market", req.Market).
				Int64("start_ts", chunk.Start).
				Int64("end_ts", chunk.End).
				Msg("Failed to fetch chunk, skipping")
			continue
		}
		ChunksFetched.Inc()
		all = append(all, points...)
	}

	merged := series.Merge(all)
	f.logger.Info().
		Str("market", req.Market).
		Int("points", len(merged)).
		Msg("Price history fetch complete")
	return merged, nil
}

// decodeHistory accepts both response shapes the endpoint produces: an
// object carrying a history array, or occasionally the bare array itself.
func decodeHistory(raw json.RawMessage) ([]series.Point, error) {
	var envelope struct {
		History []series.Point `json:"history"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		return envelope.History, nil
	}

	var bare []series.Point
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("prices-history response is neither a history object nor a point array")
}
