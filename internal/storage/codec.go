// Package storage implements the embedding cache stores: a local JSON file,
// an S3 object and a Postgres table pair.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/folio/internal/domain"
)

// decodeEntry parses a JSON cache document and checks its shape.
func decodeEntry(data []byte) (*domain.EmbeddingCacheEntry, error) {
	var entry domain.EmbeddingCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if err := domain.ValidateEmbeddingCacheEntry(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
