package cache

import (
	"fmt"

	"polymarket-data/pkg/record"
)

// PageFileName returns the cache filename for the page at the given offset.
func PageFileName(offset int) string {
	return fmt.Sprintf("offset_%d.json", offset)
}

// ReadPage returns the cached page at an offset, or ErrCacheMiss when the
// page is absent or fails to parse. A cached page is either a complete JSON
// array or treated as if it were never written.
func (s *Store) ReadPage(key Key, offset int) ([]record.Record, error) {
	var page []record.Record
	if err := s.ReadFile(key, PageFileName(offset), &page); err != nil {
		PageMisses.Inc()
		return nil, err
	}

	PageHits.Inc()
	s.logger.Debug().
		Str("cache_path", s.KeyDir(key)).
		Int("offset", offset).
		Int("records", len(page)).
		Msg("Page cache hit")
	return page, nil
}

// WritePage durably persists a fetched page at its offset.
func (s *Store) WritePage(key Key, offset int, page []record.Record) error {
	if page == nil {
		page = []record.Record{}
	}
	return s.WriteFile(key, PageFileName(offset), page)
}
