package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"polymarket-data/pkg/record"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zerolog.Nop())
}

func testKey() Key {
	return Key{Endpoint: "events", Params: map[string]string{"closed": "true"}}
}

func TestReadPageMiss(t *testing.T) {
	s := testStore(t)

	_, err := s.ReadPage(testKey(), 0)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("ReadPage on empty cache = %v, want ErrCacheMiss", err)
	}
}

func TestWriteReadPageRoundTrip(t *testing.T) {
	s := testStore(t)
	key := testKey()

	page := []record.Record{
		{"id": "1", "title": "event one"},
		{"id": "2", "title": "event two"},
	}

	if err := s.WritePage(key, 1000, page); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	got, err := s.ReadPage(key, 1000)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadPage returned %d records, want 2", len(got))
	}
	if got[0].ID() != "1" || got[1].ID() != "2" {
		t.Errorf("ReadPage records = %v", got)
	}

	// A different offset under the same key is still a miss.
	if _, err := s.ReadPage(key, 2000); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("ReadPage other offset = %v, want ErrCacheMiss", err)
	}
}

func TestReadPageCorrupted(t *testing.T) {
	s := testStore(t)
	key := testKey()

	dir := s.KeyDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, PageFileName(0)), []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Corruption is recovered as a miss, never raised.
	if _, err := s.ReadPage(key, 0); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("ReadPage corrupted = %v, want ErrCacheMiss", err)
	}
}

func TestProgressDefaultsToZero(t *testing.T) {
	s := testStore(t)

	p := s.Progress(testKey())
	if p.LastOffset != 0 || p.IsComplete {
		t.Errorf("Progress on empty cache = %+v, want zero value", p)
	}
}

func TestProgressCorruptDefaultsToZero(t *testing.T) {
	s := testStore(t)
	key := testKey()

	dir := s.KeyDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, progressFile), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := s.Progress(key)
	if p.LastOffset != 0 {
		t.Errorf("Progress with corrupt file = %+v, want zero value", p)
	}
}

func TestProgressRoundTripAndOverwrite(t *testing.T) {
	s := testStore(t)
	key := testKey()

	if err := s.SetProgress(key, Progress{LastOffset: 1000, TotalFetched: 1000}); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}
	if got := s.Progress(key); got.LastOffset != 1000 {
		t.Errorf("Progress = %+v, want LastOffset 1000", got)
	}

	// Last write wins, no merging.
	if err := s.SetProgress(key, Progress{LastOffset: 400, TotalFetched: 400}); err != nil {
		t.Fatalf("SetProgress overwrite: %v", err)
	}
	if got := s.Progress(key); got.LastOffset != 400 || got.TotalFetched != 400 {
		t.Errorf("Progress after overwrite = %+v", got)
	}
}

// Distinct stable parameter sets must never share progress. This is the
// regression property for the old bug where progress was stored per endpoint
// rather than per query.
func TestProgressScopedPerQuery(t *testing.T) {
	s := testStore(t)

	keyA := Key{Endpoint: "events", Params: map[string]string{"closed": "true", "tag_id": "1"}}
	keyB := Key{Endpoint: "events", Params: map[string]string{"closed": "true", "tag_id": "2"}}

	if err := s.SetProgress(keyA, Progress{LastOffset: 5000, TotalFetched: 5000}); err != nil {
		t.Fatal(err)
	}

	if got := s.Progress(keyB); got.LastOffset != 0 {
		t.Errorf("Progress(keyB) = %+v, progress leaked across queries", got)
	}

	if err := s.SetProgress(keyB, Progress{LastOffset: 100, TotalFetched: 100}); err != nil {
		t.Fatal(err)
	}
	if got := s.Progress(keyA); got.LastOffset != 5000 {
		t.Errorf("Progress(keyA) = %+v after writing keyB", got)
	}
}

func TestLoadConsolidatedRequiresCompleteFlag(t *testing.T) {
	s := testStore(t)
	key := testKey()

	records := []record.Record{{"id": "1"}, {"id": "2"}}

	// Artifact present but no completion marker: must be a miss.
	if err := s.WriteFile(key, consolidatedFile, records); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadConsolidated(key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("LoadConsolidated without marker = %v, want ErrCacheMiss", err)
	}

	// Marker present but false: still a miss.
	if err := s.SetProgress(key, Progress{LastOffset: 2, IsComplete: false}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadConsolidated(key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("LoadConsolidated with complete=false = %v, want ErrCacheMiss", err)
	}

	// Complete: records come back.
	if err := s.SetProgress(key, Progress{LastOffset: 2, IsComplete: true}); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadConsolidated(key)
	if err != nil {
		t.Fatalf("LoadConsolidated: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("LoadConsolidated returned %d records, want 2", len(got))
	}
}

func TestFinalizeWritesArtifactThenMarker(t *testing.T) {
	s := testStore(t)
	key := testKey()

	if err := s.SetProgress(key, Progress{LastOffset: 3, TotalFetched: 3}); err != nil {
		t.Fatal(err)
	}

	records := []record.Record{{"id": "1"}, {"id": "2"}, {"id": "3"}}
	if err := s.Finalize(key, records); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	p := s.Progress(key)
	if !p.IsComplete {
		t.Error("Finalize did not flip the completion marker")
	}
	if p.LastOffset != 3 {
		t.Errorf("Finalize clobbered progress: %+v", p)
	}

	got, err := s.LoadConsolidated(key)
	if err != nil {
		t.Fatalf("LoadConsolidated after Finalize: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("consolidated records = %d, want 3", len(got))
	}
}
