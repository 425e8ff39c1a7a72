// Package events fetches the paginated events endpoint with on-disk page
// caching, per-query resumable progress, and a short-page retry policy that
// tolerates a source under-delivering below the requested page size.
package events

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"polymarket-data/pkg/cache"
	"polymarket-data/pkg/client"
	"polymarket-data/pkg/ratelimit"
	"polymarket-data/pkg/record"
)

// Endpoint is the cache endpoint type for events pages.
const Endpoint = "events"

// eventsPath is the API path for the paginated events listing.
const eventsPath = "/events"

// PageSource fetches one page of events at the cursor carried in params.
// Non-2xx and network failures return an error; an empty page signals the
// end of data.
type PageSource interface {
	FetchPage(ctx context.Context, params url.Values) ([]record.Record, error)
}

// APISource is the PageSource backed by the Gamma events endpoint.
type APISource struct {
	client *client.Client
}

// NewAPISource creates a source that fetches pages from the remote API.
func NewAPISource(c *client.Client) *APISource {
	return &APISource{client: c}
}

// FetchPage implements PageSource.
func (s *APISource) FetchPage(ctx context.Context, params url.Values) ([]record.Record, error) {
	var page []record.Record
	if err := s.client.GetJSON(ctx, s.client.GammaURL(), eventsPath, params, &page); err != nil {
		return nil, fmt.Errorf("fetch events page: %w", err)
	}
	return page, nil
}

// Query holds the stable filter parameters of one events pull. Zero-valued
// fields are omitted from the request and from cache addressing.
type Query struct {
	// Closed filters for closed events; nil omits the parameter.
	Closed *bool

	// Ascending sets the sort order; nil omits the parameter.
	Ascending *bool

	// StartDateMin and EndDateMax are ISO8601 bounds with trailing Z.
	StartDateMin string
	EndDateMax   string

	// TagID optionally restricts to one category tag.
	TagID string

	// Extra carries any additional stable query parameters.
	Extra map[string]string
}

// Values returns the stable query parameters. Pagination cursors are added
// separately per request and never appear here.
func (q Query) Values() url.Values {
	values := url.Values{}
	if q.Closed != nil {
		values.Set("closed", fmt.Sprintf("%t", *q.Closed))
	}
	if q.Ascending != nil {
		values.Set("ascending", fmt.Sprintf("%t", *q.Ascending))
	}
	if q.StartDateMin != "" {
		values.Set("start_date_min", q.StartDateMin)
	}
	if q.EndDateMax != "" {
		values.Set("end_date_max", q.EndDateMax)
	}
	if q.TagID != "" {
		values.Set("tag_id", q.TagID)
	}
	for k, v := range q.Extra {
		if v != "" {
			values.Set(k, v)
		}
	}
	return values
}

// Key returns the cache key addressing this query.
func (q Query) Key() cache.Key {
	return cache.Key{
		Endpoint: Endpoint,
		Params:   cache.StableParams(q.Values()),
	}
}

// Fetcher drives cached page fetches against a PageSource.
type Fetcher struct {
	source  PageSource
	store   *cache.Store
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher over the given source, cache store and
// rate limiter.
func NewFetcher(source PageSource, store *cache.Store, limiter *ratelimit.Limiter, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		source:  source,
		store:   store,
		limiter: limiter,
		logger:  logger.With().Str("component", "events").Logger(),
	}
}

// Store returns the underlying cache store.
func (f *Fetcher) Store() *cache.Store {
	return f.store
}

// Source returns the underlying page source, for callers that need an
// uncached probe outside the pagination machinery.
func (f *Fetcher) Source() PageSource {
	return f.source
}

// cachedPage returns the page at offset, serving from cache when possible.
// On a miss (or with bypass set) the page is fetched remotely, durably
// written to the cache, and the fixed inter-request delay applied. The
// second return reports whether the page came from cache.
func (f *Fetcher) cachedPage(ctx context.Context, key cache.Key, base url.Values, offset, limit int, bypass bool) ([]record.Record, bool, error) {
	if !bypass {
		if page, err := f.store.ReadPage(key, offset); err == nil {
			return page, true, nil
		}
	}

	params := url.Values{}
	for k, v := range base {
		params[k] = v
	}
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("offset", fmt.Sprintf("%d", offset))

	page, err := f.source.FetchPage(ctx, params)
	if err != nil {
		return nil, false, err
	}

	if err := f.store.WritePage(key, offset, page); err != nil {
		return nil, false, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	f.logger.Debug().
		Str("cache_path", key.Dir()).
		Int("offset", offset).
		Int("records", len(page)).
		Msg("Fetched page from API")

	return page, false, nil
}

// FetchAll drains a full pagination run and returns all events, deduplicated
// by id. Accumulation is unbounded; callers wanting the in-memory guardrail
// use the collect package instead.
func (f *Fetcher) FetchAll(ctx context.Context, q Query, opts IterOptions) ([]record.Record, error) {
	var results []record.Record
	seen := make(map[string]struct{})

	it := f.Iterate(ctx, q, opts)
	for it.Next() {
		for _, ev := range it.Page() {
			id := ev.ID()
			if id != "" {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
			}
			results = append(results, ev)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	f.logger.Info().
		Str("cache_path", q.Key().Dir()).
		Int("events", len(results)).
		Msg("Fetch complete")

	return results, nil
}
