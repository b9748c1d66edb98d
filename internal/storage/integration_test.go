//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/cloo-solutions/folio/internal/domain"
	"github.com/cloo-solutions/folio/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresCacheStore_Integration(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc)
	defer pool.Close()

	store := NewPostgresCacheStore(pool)

	entry, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)

	first := &domain.EmbeddingCacheEntry{Hash: "one", Embeddings: [][]float32{{1, 2, 3}, {4, 5, 6}}}
	require.NoError(t, store.Save(ctx, first))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	second := &domain.EmbeddingCacheEntry{Hash: "two", Embeddings: [][]float32{{0.5, 0.25}}}
	require.NoError(t, store.Save(ctx, second))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, loaded)

	empty := &domain.EmbeddingCacheEntry{Hash: "empty", Embeddings: [][]float32{}}
	require.NoError(t, store.Save(ctx, empty))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, empty, loaded)

	require.NoError(t, testutil.ResetCache(ctx, pool))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestS3CacheStore_Integration(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	store, err := NewS3CacheStore(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "folio-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx))

	entry, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)

	saved := &domain.EmbeddingCacheEntry{Hash: "abc", Embeddings: [][]float32{{1, 0}, {0, 1}}}
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}
