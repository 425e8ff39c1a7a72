package cache

import (
	"polymarket-data/pkg/record"
)

// consolidatedFile holds the merged record set for one key once pagination
// finished a full run.
const consolidatedFile = "consolidated.json"

// LoadConsolidated returns the merged record set for a key, but only when
// both the artifact and the completion marker exist and the marker says the
// run finished. Anything else, including a readable artifact with the marker
// absent or false, is ErrCacheMiss and the caller falls back to pagination.
func (s *Store) LoadConsolidated(key Key) ([]record.Record, error) {
	progress := s.Progress(key)
	if !progress.IsComplete {
		ConsolidatedMisses.Inc()
		return nil, ErrCacheMiss
	}

	var records []record.Record
	if err := s.ReadFile(key, consolidatedFile, &records); err != nil {
		ConsolidatedMisses.Inc()
		return nil, ErrCacheMiss
	}

	ConsolidatedHits.Inc()
	s.logger.Info().
		Str("cache_path", s.KeyDir(key)).
		Int("records", len(records)).
		Msg("Loaded consolidated cache")
	return records, nil
}

// Finalize writes the merged record set and then flips the completion
// marker. The artifact write must durably complete before the marker flip:
// a crash between the two leaves the marker false and the next run falls
// back to pagination instead of trusting a partial artifact.
func (s *Store) Finalize(key Key, records []record.Record) error {
	if records == nil {
		records = []record.Record{}
	}
	if err := s.WriteFile(key, consolidatedFile, records); err != nil {
		return err
	}

	progress := s.Progress(key)
	progress.IsComplete = true
	return s.SetProgress(key, progress)
}
