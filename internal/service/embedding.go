package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloo-solutions/folio/internal/domain"
	"github.com/cloo-solutions/folio/internal/telemetry"
	"go.uber.org/zap"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CacheStore persists a single embedding cache entry.
// Load returns (nil, nil) when nothing has been stored yet.
type CacheStore interface {
	Load(ctx context.Context) (*domain.EmbeddingCacheEntry, error)
	Save(ctx context.Context, entry *domain.EmbeddingCacheEntry) error
}

// EmbeddingCache resolves chunk embeddings from a CacheStore, falling back to
// the embedding client when the stored fingerprint no longer matches.
type EmbeddingCache struct {
	store      CacheStore
	logger     *zap.Logger
	dimensions int
}

// NewEmbeddingCache creates a new EmbeddingCache. A nil store disables
// persistence; every build then goes to the provider.
func NewEmbeddingCache(store CacheStore, logger *zap.Logger) *EmbeddingCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingCache{store: store, logger: logger}
}

// WithDimensions makes stored vectors of any other length a cache miss, so a
// model change is picked up even when the chunks did not change. Zero
// accepts any length.
func (c *EmbeddingCache) WithDimensions(n int) *EmbeddingCache {
	if n > 0 {
		c.dimensions = n
	}
	return c
}

// Fingerprint returns the hex SHA-256 of the JSON-encoded chunk list.
// The encoding does not escape HTML so the digest matches a plain
// JSON.stringify of the same list.
func Fingerprint(chunks []domain.KnowledgeChunk) string {
	if chunks == nil {
		chunks = []domain.KnowledgeChunk{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a slice of string-only structs cannot fail.
	_ = enc.Encode(chunks)

	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:])
}

// LoadOrBuild returns one embedding per chunk, in chunk order.
//
// A stored entry with the same fingerprint and length is returned as is and
// the client is not called. Otherwise every chunk is embedded in order; the
// first failure aborts the build. A successful build is persisted; a
// persistence failure is logged and does not fail the call.
func (c *EmbeddingCache) LoadOrBuild(ctx context.Context, chunks []domain.KnowledgeChunk, client EmbeddingClient) ([][]float32, error) {
	hash := Fingerprint(chunks)

	ctx, span := telemetry.StartSpan(ctx, "EmbeddingCache.LoadOrBuild", telemetry.SpanAttributes{
		Operation:   "load_or_build",
		Fingerprint: hash,
		ChunkCount:  len(chunks),
	})
	defer span.End()

	if entry := c.load(ctx); entry.Matches(hash, len(chunks)) && c.dimensionsMatch(entry) {
		c.logger.Info("loaded embeddings from cache",
			zap.Int("chunks", len(entry.Embeddings)),
			zap.String("fingerprint", hash))
		return entry.Embeddings, nil
	}

	if client == nil {
		err := domain.ErrProviderUnavailable
		span.SetError(err)
		return nil, err
	}

	c.logger.Info("generating embeddings", zap.Int("chunks", len(chunks)))
	start := time.Now()

	embeddings := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := client.GenerateEmbedding(ctx, chunk.Text)
		if err != nil {
			err = domain.NewProviderError(fmt.Sprintf("failed to generate embedding for chunk %d", i), err)
			span.SetError(err)
			return nil, err
		}
		embeddings = append(embeddings, embedding)
	}

	c.logger.Info("embeddings generated",
		zap.Int("chunks", len(embeddings)),
		zap.Duration("elapsed", time.Since(start)))

	c.save(ctx, &domain.EmbeddingCacheEntry{Hash: hash, Embeddings: embeddings})

	return embeddings, nil
}

func (c *EmbeddingCache) dimensionsMatch(entry *domain.EmbeddingCacheEntry) bool {
	if c.dimensions == 0 {
		return true
	}
	for i, v := range entry.Embeddings {
		if len(v) != c.dimensions {
			c.logger.Info("cached embeddings have a different dimension, rebuilding",
				zap.Int("chunk", i),
				zap.Int("cached", len(v)),
				zap.Int("expected", c.dimensions))
			return false
		}
	}
	return true
}

func (c *EmbeddingCache) load(ctx context.Context) *domain.EmbeddingCacheEntry {
	if c.store == nil {
		return nil
	}

	entry, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("embedding cache unreadable, rebuilding", zap.Error(domain.NewCacheReadError(err)))
		return nil
	}
	return entry
}

func (c *EmbeddingCache) save(ctx context.Context, entry *domain.EmbeddingCacheEntry) {
	if c.store == nil {
		return
	}

	if err := domain.ValidateEmbeddingCacheEntry(entry); err != nil {
		c.logger.Warn("refusing to persist embedding cache", zap.Error(domain.NewCacheWriteError(err)))
		return
	}

	if err := c.store.Save(ctx, entry); err != nil {
		werr := domain.NewCacheWriteError(err)
		telemetry.CaptureError(ctx, werr)
		c.logger.Warn("could not persist embedding cache", zap.Error(werr))
		return
	}

	c.logger.Info("embedding cache saved", zap.Int("chunks", len(entry.Embeddings)))
}
