package domain

import "fmt"

// EmbeddingCacheEntry is the persisted mapping from a chunk list fingerprint
// to the embeddings of those chunks, index-aligned.
type EmbeddingCacheEntry struct {
	Hash       string      `json:"hash"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Matches reports whether the entry can serve a chunk list with the given
// fingerprint and length.
func (e *EmbeddingCacheEntry) Matches(hash string, chunkCount int) bool {
	if e == nil {
		return false
	}
	return e.Hash == hash && e.Embeddings != nil && len(e.Embeddings) == chunkCount
}

// ValidateEmbeddingCacheEntry validates an entry before it is persisted
func ValidateEmbeddingCacheEntry(e *EmbeddingCacheEntry) error {
	if e == nil {
		return fmt.Errorf("embedding cache entry cannot be nil")
	}

	if e.Hash == "" {
		return fmt.Errorf("embedding cache entry Hash is required")
	}

	if e.Embeddings == nil {
		return fmt.Errorf("embedding cache entry Embeddings cannot be nil")
	}

	for i, v := range e.Embeddings {
		if len(v) == 0 {
			return fmt.Errorf("embedding cache entry has empty vector at index %d", i)
		}
	}

	return nil
}
