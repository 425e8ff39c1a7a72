// Package record models the loosely-typed objects returned by the Polymarket
// APIs. The remote schema is externally owned and only structurally validated,
// so records stay generic maps with tolerant accessors on top instead of named
// structs.
package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is one event or market object as returned by the API.
type Record map[string]any

// ID returns the record's "id" field as a string, or "" if absent.
func (r Record) ID() string {
	v, ok := r["id"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// normalize lowercases a field name and strips underscores and spaces so
// "start_date", "startDate" and "start date" all compare equal.
func normalize(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "")
	return strings.ReplaceAll(name, " ", "")
}

// Lookup returns the value whose key matches name after normalization.
func (r Record) Lookup(name string) (any, bool) {
	want := normalize(name)
	for k, v := range r {
		if normalize(k) == want {
			return v, true
		}
	}
	return nil, false
}

// closeCutoff is the minimum similarity a key must reach before the
// close-match fallback accepts it.
const closeCutoff = 0.7

// LookupFuzzy behaves like Lookup but falls back to substring matching on
// normalized keys, and then to a close-match search that tolerates typos
// and transpositions such as "strat date" for "start_date". With several
// candidates the lexicographically smallest key wins, keeping the result
// deterministic.
func (r Record) LookupFuzzy(name string) (any, bool) {
	if v, ok := r.Lookup(name); ok {
		return v, true
	}

	want := normalize(name)
	var keys []string
	for k := range r {
		if strings.Contains(normalize(k), want) {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		return r[keys[0]], true
	}

	bestKey := ""
	bestScore := 0.0
	for k := range r {
		score := similarity(normalize(k), want)
		if score < closeCutoff {
			continue
		}
		if score > bestScore || (score == bestScore && k < bestKey) {
			bestKey, bestScore = k, score
		}
	}
	if bestKey == "" {
		return nil, false
	}
	return r[bestKey], true
}

// similarity scores two normalized names in [0, 1] as twice the length of
// their longest common subsequence over their combined length.
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return 2 * float64(prev[len(b)]) / float64(len(a)+len(b))
}

// String returns a field as a string via fuzzy lookup.
func (r Record) String(name string) (string, bool) {
	v, ok := r.LookupFuzzy(name)
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Date returns a field parsed as a timestamp via fuzzy lookup.
func (r Record) Date(name string) (time.Time, bool) {
	v, ok := r.LookupFuzzy(name)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(v)
}

// msThreshold separates unix-second from unix-millisecond numeric timestamps.
// Values above ~year 2200 in seconds are assumed to be milliseconds.
const msThreshold = 2200 * 365 * 24 * 3600

// ParseDate parses the date shapes the API emits: ISO8601 strings (with or
// without trailing Z) and unix numbers in seconds or milliseconds.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSuffix(t, "Z")
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	case float64:
		return parseUnix(t), true
	case int64:
		return parseUnix(float64(t)), true
	case int:
		return parseUnix(float64(t)), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return parseUnix(f), true
	default:
		return time.Time{}, false
	}
}

func parseUnix(v float64) time.Time {
	if v > msThreshold {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}

// ClobTokenIDs extracts CLOB token identifiers from a market record. The
// field arrives either as a JSON array, a stringified array, or a bare
// comma-separated string.
func ClobTokenIDs(market Record) []string {
	v, ok := market.Lookup("clobTokenIds")
	if !ok || v == nil {
		return nil
	}

	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		s := strings.NewReplacer(`"`, "", `'`, "").Replace(t)
		s = strings.Trim(s, "[]")
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return nil
	}
}
