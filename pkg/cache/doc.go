// Package cache implements the content-addressed on-disk cache shared by the
// events and price-history fetchers.
//
// Layout under the cache root:
//
//	<endpoint>/<stable-key-segments>/offset_<N>.json   one fetched page
//	<endpoint>/<stable-key-segments>/progress.json     resumable cursor + completion marker
//	<endpoint>/<stable-key-segments>/consolidated.json merged full result set
//	hft_prices/<stable-key-segments>/prices.json       high-frequency merged series
//
// Keys are derived purely from the stable query parameters: pagination
// cursors are excluded, nil values dropped, the rest sorted by name and
// joined as key=value segments, so logically identical queries land in
// the same directory no matter how the call was spelled.
//
// # Failure model
//
// Reads self-heal: a missing or unparseable file is ErrCacheMiss and the
// caller refetches. Writes are fatal for the entry being written and are
// flushed with fsync before returning, so the corruption check upstream can
// trust any file that fully exists.
//
// # Basic Usage
//
//	store := cache.NewStore("data/cache", logger)
//
//	key := cache.Key{
//		Endpoint: "events",
//		Params:   map[string]string{"closed": "true", "tag_id": "64"},
//	}
//
//	page, err := store.ReadPage(key, 0)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then store.WritePage(key, 0, page)
//	}
package cache
