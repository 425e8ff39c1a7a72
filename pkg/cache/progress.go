package cache

// progressFile holds the resumable cursor for one key. It lives inside the
// key's own directory: progress for distinct queries never interferes.
const progressFile = "progress.json"

// Progress records how far a pagination run has advanced for one key.
type Progress struct {
	// LastOffset is the next offset to fetch: the last successfully
	// consumed offset plus the length of that page.
	LastOffset int `json:"last_offset"`

	// TotalFetched counts records consumed across the run so far.
	TotalFetched int `json:"total_fetched"`

	// IsComplete is flipped by Finalize once a full uncapped run reached
	// the end of data. A consolidated artifact is only trusted when this
	// is true.
	IsComplete bool `json:"is_complete"`
}

// Progress returns the stored progress for a key. A missing or corrupt file
// means the pull never started: the zero value is returned, never an error.
func (s *Store) Progress(key Key) Progress {
	var p Progress
	if err := s.ReadFile(key, progressFile, &p); err != nil {
		return Progress{}
	}
	if p.LastOffset < 0 {
		return Progress{}
	}
	return p
}

// SetProgress fully overwrites the stored progress (last-write-wins) with
// the same durability guarantees as page writes.
func (s *Store) SetProgress(key Key, p Progress) error {
	return s.WriteFile(key, progressFile, p)
}
