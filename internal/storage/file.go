package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/folio/internal/domain"
)

// DefaultCachePath is the cache file used when none is configured.
const DefaultCachePath = ".embeddings_cache.json"

// FileCacheStore keeps the embedding cache in a local JSON file
type FileCacheStore struct {
	path string
}

// NewFileCacheStore creates a new FileCacheStore
func NewFileCacheStore(path string) *FileCacheStore {
	if path == "" {
		path = DefaultCachePath
	}
	return &FileCacheStore{path: path}
}

// Path returns the cache file location.
func (s *FileCacheStore) Path() string {
	return s.path
}

// Load reads and decodes the cache file. A missing file is not an error.
func (s *FileCacheStore) Load(ctx context.Context) (*domain.EmbeddingCacheEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	return decodeEntry(data)
}

// Save writes the cache to a temporary file in the same directory and renames
// it over the previous one, so readers never see a partial file.
func (s *FileCacheStore) Save(ctx context.Context, entry *domain.EmbeddingCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}
