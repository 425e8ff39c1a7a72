package events

import (
	"context"
	"net/url"

	"polymarket-data/pkg/cache"
	"polymarket-data/pkg/record"
)

// IterOptions controls one pagination run.
type IterOptions struct {
	// PageSize is the requested page size (the API supports up to 1000).
	PageSize int

	// StartOffset is the explicit starting cursor. When nil the cursor
	// is resolved from the stored progress for this query, so an
	// interrupted run picks up where it left off.
	StartOffset *int

	// MaxPages caps the number of pages fetched; 0 means no cap.
	MaxPages int

	// ShortPageRetries is how many times a short page freshly fetched
	// from the API is refetched at the same offset before being accepted.
	ShortPageRetries int
}

// Iterator is a lazy pull over pages of one query. The next page is not
// produced until Next is called, so memory stays bounded to one in-flight
// page regardless of total dataset size.
//
//	it := fetcher.Iterate(ctx, q, opts)
//	for it.Next() {
//		page := it.Page()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	ctx     context.Context
	fetcher *Fetcher
	key     cache.Key
	base    url.Values
	opts    IterOptions

	offset int
	pages  int
	page   []record.Record
	err    error
	done   bool
}

// StartAt builds an explicit cursor for IterOptions.StartOffset,
// overriding the default resume-from-progress behavior.
func StartAt(offset int) *int {
	return &offset
}

// Iterate starts a pagination run for the query. By default the starting
// offset comes from the stored progress cursor; an explicit StartOffset
// overrides it.
func (f *Fetcher) Iterate(ctx context.Context, q Query, opts IterOptions) *Iterator {
	if opts.PageSize < 1 {
		opts.PageSize = 1000
	}

	key := q.Key()
	var offset int
	if opts.StartOffset != nil {
		offset = *opts.StartOffset
	} else {
		offset = f.store.Progress(key).LastOffset
		f.logger.Info().
			Str("cache_path", key.Dir()).
			Int("offset", offset).
			Msg("Resuming pagination from stored progress")
	}
	if offset < 0 {
		offset = 0
	}

	return &Iterator{
		ctx:     ctx,
		fetcher: f,
		key:     key,
		base:    q.Values(),
		opts:    opts,
		offset:  offset,
	}
}

// Next advances to the next page. It returns false when the data is
// exhausted, the page cap is reached, or an error occurred; Err
// distinguishes the cases.
func (it *Iterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}

	if it.opts.MaxPages > 0 && it.pages >= it.opts.MaxPages {
		it.fetcher.logger.Info().
			Str("cache_path", it.key.Dir()).
			Int("pages", it.pages).
			Msg("Reached max pages cap, stopping pagination")
		it.done = true
		return false
	}

	page, err := it.fetchWithShortPageRetry()
	if err != nil {
		it.err = err
		it.done = true
		return false
	}

	if len(page) == 0 {
		it.fetcher.logger.Info().
			Str("cache_path", it.key.Dir()).
			Int("offset", it.offset).
			Msg("Empty page received, pagination complete")
		it.done = true
		return false
	}

	it.page = page
	it.pages++

	// Advance by the number of records actually received, never the
	// requested page size: a permanently short page would otherwise
	// create a silent gap at the next offset.
	next := it.offset + len(page)
	if err := it.fetcher.store.SetProgress(it.key, cache.Progress{
		LastOffset:   next,
		TotalFetched: next,
	}); err != nil {
		it.err = err
		it.done = true
		return false
	}
	it.offset = next

	return true
}

// fetchWithShortPageRetry fetches the page at the current offset. A page
// that is shorter than requested but nonzero may be a transient
// under-delivery: when it was freshly fetched from the API it is refetched
// (bypassing the page cache) with linearly scaled backoff up to the retry
// budget, then accepted as authoritative for this slice. Short pages served
// from cache were already accepted by an earlier run and are not retried.
func (it *Iterator) fetchWithShortPageRetry() ([]record.Record, error) {
	for attempt := 0; ; attempt++ {
		bypass := attempt > 0
		page, fromCache, err := it.fetcher.cachedPage(it.ctx, it.key, it.base, it.offset, it.opts.PageSize, bypass)
		if err != nil {
			return nil, err
		}

		if len(page) == 0 || len(page) >= it.opts.PageSize || fromCache {
			return page, nil
		}

		if attempt >= it.opts.ShortPageRetries {
			it.fetcher.logger.Warn().
				Str("cache_path", it.key.Dir()).
				Int("offset", it.offset).
				Int("records", len(page)).
				Int("requested", it.opts.PageSize).
				Msg("Accepting short page after exhausting retries")
			return page, nil
		}

		it.fetcher.logger.Debug().
			Int("offset", it.offset).
			Int("records", len(page)).
			Int("requested", it.opts.PageSize).
			Int("attempt", attempt+1).
			Msg("Short page, refetching same offset")

		if err := it.fetcher.limiter.WaitAttempt(it.ctx, attempt+1); err != nil {
			return nil, err
		}
	}
}

// Page returns the current page. Valid only after a true Next.
func (it *Iterator) Page() []record.Record {
	return it.page
}

// Err returns the error that terminated iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Offset returns the cursor position after the current page.
func (it *Iterator) Offset() int {
	return it.offset
}

// Pages returns how many pages have been yielded so far.
func (it *Iterator) Pages() int {
	return it.pages
}

// RecordIterator yields individual records instead of whole pages.
type RecordIterator struct {
	inner *Iterator
	page  []record.Record
	idx   int
}

// IterateRecords starts a pagination run yielding one record at a time.
func (f *Fetcher) IterateRecords(ctx context.Context, q Query, opts IterOptions) *RecordIterator {
	return &RecordIterator{inner: f.Iterate(ctx, q, opts)}
}

// Next advances to the next record, pulling the next page on demand.
func (it *RecordIterator) Next() bool {
	for it.idx >= len(it.page) {
		if !it.inner.Next() {
			return false
		}
		it.page = it.inner.Page()
		it.idx = 0
	}
	it.idx++
	return true
}

// Record returns the current record. Valid only after a true Next.
func (it *RecordIterator) Record() record.Record {
	return it.page[it.idx-1]
}

// Err returns the error that terminated iteration, if any.
func (it *RecordIterator) Err() error {
	return it.inner.Err()
}
