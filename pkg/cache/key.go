package cache

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
)

// paginationParams are cursor parameters that must never address cache
// locations: two fetches of the same logical query at different offsets
// share one cache directory.
var paginationParams = map[string]struct{}{
	"limit":  {},
	"offset": {},
}

// Key identifies one cached query: an endpoint type plus the stable
// query parameters (cursor and page-size excluded).
type Key struct {
	// Endpoint is the endpoint type ("events", "trades", "hft_prices").
	Endpoint string

	// Params are the stable query parameters. Empty values are treated
	// as unset and omitted from the derived path.
	Params map[string]string
}

// valueEscaper rewrites the characters that could forge a path segment or
// the "__" separator, so distinct parameter sets cannot collide.
// "%" escapes first so escaped output never re-escapes.
var valueEscaper = strings.NewReplacer(
	"%", "%25",
	"_", "%5F",
	"/", "%2F",
	`\`, "%5C",
	"=", "%3D",
)

// Dir derives the cache directory for this key, relative to the cache root:
// <endpoint>/<key=value segments sorted by key, joined "__">.
// Identical (name, value) sets always map to the same directory regardless
// of construction order.
func (k Key) Dir() string {
	keys := make([]string, 0, len(k.Params))
	for name, value := range k.Params {
		if value == "" {
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)

	segments := make([]string, 0, len(keys))
	for _, name := range keys {
		segments = append(segments, fmt.Sprintf("%s=%s", valueEscaper.Replace(name), valueEscaper.Replace(k.Params[name])))
	}

	return filepath.Join(k.Endpoint, strings.Join(segments, "__"))
}

// StableParams converts query values to key params, dropping pagination
// cursors and empty values.
func StableParams(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for name := range values {
		if _, skip := paginationParams[name]; skip {
			continue
		}
		if v := values.Get(name); v != "" {
			params[name] = v
		}
	}
	return params
}
