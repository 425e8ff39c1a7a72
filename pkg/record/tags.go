package record

import (
	"fmt"
	"strings"
)

// TagField selects which tag attribute FilterByTags matches on.
type TagField string

const (
	// TagID matches on the numeric tag id (the values the server filters by).
	TagID TagField = "id"

	// TagLabel matches on the human-readable label.
	TagLabel TagField = "label"

	// TagSlug matches on the URL-friendly slug.
	TagSlug TagField = "slug"
)

// FilterByTags returns the events that carry at least one tag whose field
// matches any of the requested values. Matching on label/slug is
// case-insensitive unless caseSensitive is set; id matching is always exact.
func FilterByTags(events []Record, values []string, field TagField, caseSensitive bool) []Record {
	if len(values) == 0 {
		return events
	}

	fold := !caseSensitive && (field == TagLabel || field == TagSlug)
	want := make(map[string]struct{}, len(values))
	for _, v := range values {
		if fold {
			v = strings.ToLower(v)
		}
		want[v] = struct{}{}
	}

	var filtered []Record
	for _, event := range events {
		tags, ok := event["tags"].([]any)
		if !ok || len(tags) == 0 {
			continue
		}

		for _, raw := range tags {
			tag, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			v, ok := tag[string(field)]
			if !ok || v == nil {
				continue
			}

			s := fmt.Sprint(v)
			if fold {
				s = strings.ToLower(s)
			}
			if _, hit := want[s]; hit {
				filtered = append(filtered, event)
				break
			}
		}
	}

	return filtered
}
