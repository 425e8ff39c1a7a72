package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// ErrCacheMiss indicates the requested entry is absent or unusable.
	ErrCacheMiss = errors.New("cache miss")
)

// Store reads and writes cache entries under a single on-disk root.
//
// The tree is assumed single-writer: nothing here locks files, and two
// processes writing the same key directory concurrently is undefined
// behavior.
type Store struct {
	root   string
	logger zerolog.Logger
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on first write.
func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{
		root:   dir,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// KeyDir returns the absolute directory for a key.
func (s *Store) KeyDir(key Key) string {
	return filepath.Join(s.root, key.Dir())
}

// ReadFile reads and decodes one JSON cache file under the key's directory.
// A missing file returns ErrCacheMiss. A file that fails to parse is logged
// and also returns ErrCacheMiss: corruption self-heals by refetching, it is
// never surfaced as an error.
func (s *Store) ReadFile(key Key, name string, v any) error {
	path := filepath.Join(s.KeyDir(key), name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCacheMiss
		}
		s.logger.Warn().Err(err).Str("cache_path", path).Msg("Cache read failed, treating as miss")
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn().Err(err).Str("cache_path", path).Msg("Corrupted cache entry, treating as miss")
		return ErrCacheMiss
	}

	return nil
}

// WriteFile encodes v as JSON and writes it under the key's directory,
// creating parent directories as needed. The file is flushed and fsynced
// before returning so a crash immediately afterwards cannot leave a
// half-written entry. Write failures are returned to the caller.
func (s *Store) WriteFile(key Key, name string, v any) error {
	dir := s.KeyDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("create cache dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("create cache file %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("write cache file %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("sync cache file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("close cache file %s: %w", path, err)
	}

	return nil
}
