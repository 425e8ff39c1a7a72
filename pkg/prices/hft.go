package prices

import (
	"context"
	"fmt"
	"strconv"

	"polymarket-data/pkg/cache"
	"polymarket-data/pkg/series"
)

// hftEndpoint is the cache directory for reconstructed high-frequency
// series, separate from the raw trades responses backing them.
const hftEndpoint = "hft_prices"

// HFTRequest describes a sub-minute price reconstruction over
// [StartTs, EndTs) unix seconds.
type HFTRequest struct {
	Market  string
	StartTs int64
	EndTs   int64

	// FidelitySeconds is the effective sampling interval, 1 to 60. Lower
	// values mean more API calls and higher resolution. Zero means the
	// default of 10.
	FidelitySeconds int

	// ChunkMinutes bounds the time window per API call. Zero means the
	// default of one day.
	ChunkMinutes int

	// Force bypasses the cached result and refetches from the API.
	Force bool
}

const (
	defaultFidelitySeconds = 10
	defaultChunkMinutes    = 24 * 60
)

func (r HFTRequest) withDefaults() HFTRequest {
	if r.FidelitySeconds == 0 {
		r.FidelitySeconds = defaultFidelitySeconds
	}
	if r.ChunkMinutes == 0 {
		r.ChunkMinutes = defaultChunkMinutes
	}
	return r
}

func (r HFTRequest) validate() error {
	if r.Market == "" {
		return fmt.Errorf("market is required")
	}
	if r.FidelitySeconds < 1 || r.FidelitySeconds > 60 {
		return fmt.Errorf("fidelity_seconds must be between 1 and 60, got %d", r.FidelitySeconds)
	}
	if r.EndTs <= r.StartTs {
		return fmt.Errorf("end_ts %d must be greater than start_ts %d", r.EndTs, r.StartTs)
	}
	return nil
}

func (r HFTRequest) key() cache.Key {
	return cache.Key{Endpoint: hftEndpoint, Params: map[string]string{
		"market":           r.Market,
		"start_ts":         strconv.FormatInt(r.StartTs, 10),
		"end_ts":           strconv.FormatInt(r.EndTs, 10),
		"fidelity_seconds": strconv.Itoa(r.FidelitySeconds),
		"chunk_minutes":    strconv.Itoa(r.ChunkMinutes),
	}}
}

const hftResultFile = "prices.json"

// HighFrequency approximates sub-minute sampling from the minute-granular
// prices-history source. It runs 60/fidelitySeconds full chunked fetches at
// one-minute fidelity, each shifted by a phase offset of i*fidelitySeconds,
// and merges the staggered minute grids into one series.
//
// The merged result is cached under its own key; per-chunk responses also
// land in the regular trades cache, so a rerun after a partial failure only
// refetches the slices that failed.
func (f *Fetcher) HighFrequency(ctx context.Context, req HFTRequest) ([]series.Point, error) {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}

	key := req.key()
	if !req.Force {
		var cached []series.Point
		if err := f.store.ReadFile(key, hftResultFile, &cached); err == nil {
			f.logger.Info().
				Str("market", req.Market).
				Int("points", len(cached)).
				Msg("Loaded high-frequency prices from cache")
			return cached, nil
		}
	}

	numOffsets := 60 / req.FidelitySeconds
	chunkSeconds := int64(req.ChunkMinutes) * 60

	f.logger.Info().
		Str("market", req.Market).
		Int("phase_offsets", numOffsets).
		Int("fidelity_seconds", req.FidelitySeconds).
		Msg("Reconstructing high-frequency prices")

	var all []series.Point
	for i := 0; i < numOffsets; i++ {
		phase := int64(i * req.FidelitySeconds)
		window := Window{Start: req.StartTs + phase, End: req.EndTs}

		for _, chunk := range window.Chunks(chunkSeconds) {
			points, err := f.FetchPrices(ctx, PriceQuery{
				Market:      req.Market,
				StartTs:     chunk.Start,
				EndTs:       chunk.End,
				FidelityMin: 1,
			})
			if err != nil {
				ChunksFailed.Inc()
				f.logger.Warn().Err(err).
					Str("market", req.Market).
					Int64("phase_offset", phase).
					Int64("start_ts", chunk.Start).
					Int64("end_ts", chunk.End).
					Msg("Failed to fetch high-frequency chunk, skipping")
				continue
			}
			ChunksFetched.Inc()
			all = append(all, points...)
		}
	}

	if len(all) == 0 {
		return []series.Point{}, nil
	}

	merged := series.Merge(all)
	f.logger.Info().
		Str("market", req.Market).
		Int("points", len(merged)).
		Int("raw_points", len(all)).
		Msg("High-frequency reconstruction complete")

	if err := f.store.WriteFile(key, hftResultFile, merged); err != nil {
		f.logger.Warn().Err(err).Str("market", req.Market).Msg("Failed to cache high-frequency result")
	}

	return merged, nil
}
