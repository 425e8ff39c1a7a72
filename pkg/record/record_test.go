package record

import (
	"testing"
	"time"
)

func TestLookup(t *testing.T) {
	r := Record{"startDate": "2024-01-01", "end_date": "2024-02-01", "volume": 5.0}

	tests := []struct {
		name  string
		field string
		want  any
		found bool
	}{
		{"exact key", "volume", 5.0, true},
		{"snake case for camel key", "start_date", "2024-01-01", true},
		{"spaces normalized", "end date", "2024-02-01", true},
		{"missing field", "liquidity", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Lookup(tt.field)
			if ok != tt.found {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.field, ok, tt.found)
			}
			if ok && got != tt.want {
				t.Errorf("Lookup(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestLookupFuzzy(t *testing.T) {
	r := Record{"volumeNum": 10.0, "volume24hr": 3.0}

	// Substring match; deterministic smallest key wins.
	got, ok := r.LookupFuzzy("volume")
	if !ok {
		t.Fatal("expected fuzzy match for 'volume'")
	}
	if got != 3.0 {
		t.Errorf("LookupFuzzy = %v, want 3.0 (volume24hr sorts first)", got)
	}

	if _, ok := r.LookupFuzzy("liquidity"); ok {
		t.Error("expected no match for 'liquidity'")
	}
}

func TestLookupFuzzyCloseMatch(t *testing.T) {
	r := Record{"start_date": "2024-01-01", "end_date": "2024-02-01"}

	// Transposed characters still resolve to the nearest key.
	got, ok := r.LookupFuzzy("strat date")
	if !ok {
		t.Fatal("expected close match for 'strat date'")
	}
	if got != "2024-01-01" {
		t.Errorf("LookupFuzzy = %v, want the start_date value", got)
	}

	// Distant names stay below the similarity cutoff.
	if _, ok := r.LookupFuzzy("volume"); ok {
		t.Error("expected no match for an unrelated name")
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"startdate", "startdate", 1},
		{"startdate", "stratdate", 2 * 8.0 / 18},
		{"", "", 1},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		if got := similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want time.Time
		ok   bool
	}{
		{"iso with Z", "2024-06-15T12:00:00Z", time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), true},
		{"iso no zone", "2024-06-15T12:00:00", time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), true},
		{"date only", "2024-06-15", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{"unix seconds", float64(1718452800), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), true},
		{"unix millis", float64(1718452800000), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), true},
		{"garbage", "not a date", time.Time{}, false},
		{"nil", nil, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%v) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClobTokenIDs(t *testing.T) {
	tests := []struct {
		name   string
		market Record
		want   []string
	}{
		{
			name:   "json array",
			market: Record{"clobTokenIds": []any{"111", "222"}},
			want:   []string{"111", "222"},
		},
		{
			name:   "stringified array",
			market: Record{"clobTokenIds": `["111", "222"]`},
			want:   []string{"111", "222"},
		},
		{
			name:   "single string",
			market: Record{"clobTokenIds": "333"},
			want:   []string{"333"},
		},
		{
			name:   "missing",
			market: Record{},
			want:   nil,
		},
		{
			name:   "empty string",
			market: Record{"clobTokenIds": ""},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClobTokenIDs(tt.market)
			if len(got) != len(tt.want) {
				t.Fatalf("ClobTokenIDs = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ClobTokenIDs[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilterByTags(t *testing.T) {
	events := []Record{
		{"id": "1", "tags": []any{map[string]any{"id": "64", "label": "Esports", "slug": "esports"}}},
		{"id": "2", "tags": []any{map[string]any{"id": "1", "label": "Sports", "slug": "sports"}}},
		{"id": "3"},
	}

	byID := FilterByTags(events, []string{"64"}, TagID, false)
	if len(byID) != 1 || byID[0].ID() != "1" {
		t.Errorf("FilterByTags by id = %v, want event 1", byID)
	}

	byLabel := FilterByTags(events, []string{"sports"}, TagLabel, false)
	if len(byLabel) != 1 || byLabel[0].ID() != "2" {
		t.Errorf("FilterByTags by label = %v, want event 2", byLabel)
	}

	caseSensitive := FilterByTags(events, []string{"sports"}, TagLabel, true)
	if len(caseSensitive) != 0 {
		t.Errorf("case-sensitive label match should be empty, got %v", caseSensitive)
	}

	all := FilterByTags(events, nil, TagID, false)
	if len(all) != len(events) {
		t.Errorf("empty filter should return all events")
	}
}
