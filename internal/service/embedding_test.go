package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/folio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockCacheStore is a mock implementation of CacheStore
type MockCacheStore struct {
	mock.Mock
}

func (m *MockCacheStore) Load(ctx context.Context) (*domain.EmbeddingCacheEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmbeddingCacheEntry), args.Error(1)
}

func (m *MockCacheStore) Save(ctx context.Context, entry *domain.EmbeddingCacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// memoryCacheStore keeps the last saved entry in memory
type memoryCacheStore struct {
	entry *domain.EmbeddingCacheEntry
	saves int
}

func (s *memoryCacheStore) Load(ctx context.Context) (*domain.EmbeddingCacheEntry, error) {
	return s.entry, nil
}

func (s *memoryCacheStore) Save(ctx context.Context, entry *domain.EmbeddingCacheEntry) error {
	s.entry = entry
	s.saves++
	return nil
}

func testChunks() []domain.KnowledgeChunk {
	return []domain.KnowledgeChunk{
		{Type: "Jane", Text: "# Profile: Jane\n- Headline: Engineer"},
		{Type: "Skills", Text: "## Skills\nPython, Go"},
	}
}

func TestFingerprint(t *testing.T) {
	chunks := testChunks()

	assert.Len(t, Fingerprint(chunks), 64)
	assert.Equal(t, Fingerprint(chunks), Fingerprint(testChunks()))
	assert.Equal(t, Fingerprint(nil), Fingerprint([]domain.KnowledgeChunk{}))

	edited := testChunks()
	edited[1].Text = "## Skills\nPython, Go, Rust"
	assert.NotEqual(t, Fingerprint(chunks), Fingerprint(edited))

	retyped := testChunks()
	retyped[0].Type = "Profile"
	assert.NotEqual(t, Fingerprint(chunks), Fingerprint(retyped))

	reordered := []domain.KnowledgeChunk{chunks[1], chunks[0]}
	assert.NotEqual(t, Fingerprint(chunks), Fingerprint(reordered))
}

func TestFingerprint_MatchesPlainJSON(t *testing.T) {
	// sha256 of `[{"type":"A & B","text":"<b>x</b>"}]`
	chunks := []domain.KnowledgeChunk{{Type: "A & B", Text: "<b>x</b>"}}

	assert.Equal(t, "8aa80145e5c2f28eb9276258b0e695c6dd470dc02adb1f10ef4c6eeda550c6e6", Fingerprint(chunks))
}

func TestEmbeddingCache_BuildsThenHitsCache(t *testing.T) {
	ctx := context.Background()
	store := &memoryCacheStore{}
	client := new(MockEmbeddingClient)
	chunks := testChunks()

	client.On("GenerateEmbedding", mock.Anything, chunks[0].Text).Return([]float32{1, 0}, nil).Once()
	client.On("GenerateEmbedding", mock.Anything, chunks[1].Text).Return([]float32{0, 1}, nil).Once()

	cache := NewEmbeddingCache(store, nil)

	first, err := cache.LoadOrBuild(ctx, chunks, client)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, first)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, Fingerprint(chunks), store.entry.Hash)

	second, err := cache.LoadOrBuild(ctx, chunks, client)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.saves)

	client.AssertNumberOfCalls(t, "GenerateEmbedding", 2)
	client.AssertExpectations(t)
}

func TestEmbeddingCache_InvalidatesOnEdit(t *testing.T) {
	ctx := context.Background()
	chunks := testChunks()
	store := &memoryCacheStore{entry: &domain.EmbeddingCacheEntry{
		Hash:       Fingerprint(chunks),
		Embeddings: [][]float32{{1, 0}, {0, 1}},
	}}

	edited := testChunks()
	edited[1].Text = "## Skills\nPython, Go, Rust"

	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.5, 0.5}, nil)

	embeddings, err := NewEmbeddingCache(store, nil).LoadOrBuild(ctx, edited, client)

	require.NoError(t, err)
	assert.Len(t, embeddings, 2)
	client.AssertNumberOfCalls(t, "GenerateEmbedding", 2)
	assert.Equal(t, Fingerprint(edited), store.entry.Hash)
}

func TestEmbeddingCache_CountMismatchRebuilds(t *testing.T) {
	ctx := context.Background()
	chunks := testChunks()
	store := &memoryCacheStore{entry: &domain.EmbeddingCacheEntry{
		Hash:       Fingerprint(chunks),
		Embeddings: [][]float32{{1, 0}},
	}}

	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 1}, nil)

	embeddings, err := NewEmbeddingCache(store, nil).LoadOrBuild(ctx, chunks, client)

	require.NoError(t, err)
	assert.Len(t, embeddings, 2)
	client.AssertNumberOfCalls(t, "GenerateEmbedding", 2)
}

func TestEmbeddingCache_DimensionMismatchRebuilds(t *testing.T) {
	ctx := context.Background()
	chunks := testChunks()
	store := &memoryCacheStore{entry: &domain.EmbeddingCacheEntry{
		Hash:       Fingerprint(chunks),
		Embeddings: [][]float32{{1, 0}, {0, 1}},
	}}

	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 1, 1}, nil)

	embeddings, err := NewEmbeddingCache(store, nil).WithDimensions(3).LoadOrBuild(ctx, chunks, client)

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1, 1}, {1, 1, 1}}, embeddings)
	assert.Equal(t, embeddings, store.entry.Embeddings)
	client.AssertNumberOfCalls(t, "GenerateEmbedding", 2)
}

func TestEmbeddingCache_MatchingDimensionsHitCache(t *testing.T) {
	ctx := context.Background()
	chunks := testChunks()
	cached := [][]float32{{1, 0}, {0, 1}}
	store := &memoryCacheStore{entry: &domain.EmbeddingCacheEntry{Hash: Fingerprint(chunks), Embeddings: cached}}

	client := new(MockEmbeddingClient)

	embeddings, err := NewEmbeddingCache(store, nil).WithDimensions(2).LoadOrBuild(ctx, chunks, client)

	require.NoError(t, err)
	assert.Equal(t, cached, embeddings)
	client.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
}

func TestEmbeddingCache_ProviderFailureAbortsBuild(t *testing.T) {
	ctx := context.Background()
	chunks := testChunks()
	store := new(MockCacheStore)
	store.On("Load", mock.Anything).Return(nil, nil)

	providerErr := errors.New("503 service unavailable")
	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, chunks[0].Text).Return([]float32{1, 0}, nil)
	client.On("GenerateEmbedding", mock.Anything, chunks[1].Text).Return(nil, providerErr)

	embeddings, err := NewEmbeddingCache(store, nil).LoadOrBuild(ctx, chunks, client)

	assert.Nil(t, embeddings)
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.ErrCodeProvider))
	assert.ErrorIs(t, err, providerErr)
	assert.Contains(t, err.Error(), "chunk 1")
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestEmbeddingCache_CorruptCacheIsMiss(t *testing.T) {
	ctx := context.Background()
	chunks := testChunks()
	store := new(MockCacheStore)
	store.On("Load", mock.Anything).Return(nil, errors.New("unexpected end of JSON input"))
	store.On("Save", mock.Anything, mock.MatchedBy(func(e *domain.EmbeddingCacheEntry) bool {
		return e.Hash == Fingerprint(chunks) && len(e.Embeddings) == 2
	})).Return(nil)

	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 2}, nil)

	embeddings, err := NewEmbeddingCache(store, nil).LoadOrBuild(ctx, chunks, client)

	require.NoError(t, err)
	assert.Len(t, embeddings, 2)
	store.AssertExpectations(t)
}

func TestEmbeddingCache_WriteFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	chunks := testChunks()
	store := new(MockCacheStore)
	store.On("Load", mock.Anything).Return(nil, nil)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("read-only file system"))

	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 2}, nil)

	embeddings, err := NewEmbeddingCache(store, nil).LoadOrBuild(ctx, chunks, client)

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {1, 2}}, embeddings)
	store.AssertExpectations(t)
}

func TestEmbeddingCache_NilStoreAlwaysBuilds(t *testing.T) {
	ctx := context.Background()
	chunks := testChunks()
	client := new(MockEmbeddingClient)
	client.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1}, nil)

	cache := NewEmbeddingCache(nil, nil)
	_, err := cache.LoadOrBuild(ctx, chunks, client)
	require.NoError(t, err)
	_, err = cache.LoadOrBuild(ctx, chunks, client)
	require.NoError(t, err)

	client.AssertNumberOfCalls(t, "GenerateEmbedding", 4)
}

func TestEmbeddingCache_NilClientOnMiss(t *testing.T) {
	_, err := NewEmbeddingCache(&memoryCacheStore{}, nil).LoadOrBuild(context.Background(), testChunks(), nil)

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestEmbeddingCache_NilClientOnHit(t *testing.T) {
	chunks := testChunks()
	store := &memoryCacheStore{entry: &domain.EmbeddingCacheEntry{
		Hash:       Fingerprint(chunks),
		Embeddings: [][]float32{{1}, {2}},
	}}

	embeddings, err := NewEmbeddingCache(store, nil).LoadOrBuild(context.Background(), chunks, nil)

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, embeddings)
}
