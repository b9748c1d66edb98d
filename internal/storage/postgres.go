package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloo-solutions/folio/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresCacheStore keeps the embedding cache in Postgres: the fingerprint in
// embedding_cache and one pgvector row per chunk in embedding_cache_vectors.
type PostgresCacheStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCacheStore creates a new PostgresCacheStore. The schema is
// created by the migrations package.
func NewPostgresCacheStore(pool *pgxpool.Pool) *PostgresCacheStore {
	return &PostgresCacheStore{pool: pool}
}

// Load reads the stored fingerprint and vectors. No stored fingerprint is not
// an error.
func (s *PostgresCacheStore) Load(ctx context.Context) (*domain.EmbeddingCacheEntry, error) {
	var hash string
	err := s.pool.QueryRow(ctx, `SELECT hash FROM embedding_cache WHERE id = 1`).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache fingerprint: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT chunk_index, embedding::text FROM embedding_cache_vectors ORDER BY chunk_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache vectors: %w", err)
	}
	defer rows.Close()

	embeddings := make([][]float32, 0)
	for rows.Next() {
		var index int
		var vec pgvector.Vector
		if err := rows.Scan(&index, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan cache vector: %w", err)
		}
		if index != len(embeddings) {
			return nil, fmt.Errorf("cache vectors are not contiguous at chunk %d", index)
		}
		embeddings = append(embeddings, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cache vectors: %w", err)
	}

	entry := &domain.EmbeddingCacheEntry{Hash: hash, Embeddings: embeddings}
	if err := domain.ValidateEmbeddingCacheEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Save replaces the stored fingerprint and vectors in a single transaction.
func (s *PostgresCacheStore) Save(ctx context.Context, entry *domain.EmbeddingCacheEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := saveEntry(ctx, tx, entry); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cache: %w", err)
	}
	return nil
}

func saveEntry(ctx context.Context, tx pgx.Tx, entry *domain.EmbeddingCacheEntry) error {
	if _, err := tx.Exec(ctx, `DELETE FROM embedding_cache_vectors`); err != nil {
		return fmt.Errorf("failed to clear cache vectors: %w", err)
	}

	batch := &pgx.Batch{}
	for i, embedding := range entry.Embeddings {
		batch.Queue(
			`INSERT INTO embedding_cache_vectors (chunk_index, embedding) VALUES ($1, $2)`,
			i, pgvector.NewVector(embedding),
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert cache vectors: %w", err)
		}
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO embedding_cache (id, hash, updated_at) VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET hash = EXCLUDED.hash, updated_at = EXCLUDED.updated_at`,
		entry.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to write cache fingerprint: %w", err)
	}

	return nil
}
