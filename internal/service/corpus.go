package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloo-solutions/folio/internal/domain"
	"github.com/cloo-solutions/folio/internal/telemetry"
	"go.uber.org/zap"
)

// debugCandidates is how many ranked candidates are logged when debugging
// is enabled.
const debugCandidates = 10

// corpusSnapshot is an immutable view of one built corpus.
type corpusSnapshot struct {
	docHash     string
	fingerprint string
	chunks      []domain.KnowledgeChunk
	embeddings  [][]float32
	builtAt     time.Time
}

// CorpusStats describes the currently published corpus.
type CorpusStats struct {
	Chunks      int       `json:"chunks"`
	Fingerprint string    `json:"fingerprint"`
	BuiltAt     time.Time `json:"built_at"`
}

// DefaultRebuildBackoff is how long BuildPrompt waits before retrying a
// build that failed for the same document.
const DefaultRebuildBackoff = 30 * time.Second

// buildFailure remembers the last failed build of a document.
type buildFailure struct {
	docHash string
	at      time.Time
	err     error
}

// CorpusOption configures a Corpus.
type CorpusOption func(*Corpus)

// WithLogger sets the corpus logger.
func WithLogger(logger *zap.Logger) CorpusOption {
	return func(c *Corpus) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTopK sets how many chunks are considered per query.
func WithTopK(k int) CorpusOption {
	return func(c *Corpus) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithTemplate sets the system prompt template.
func WithTemplate(template string) CorpusOption {
	return func(c *Corpus) {
		c.template = template
	}
}

// WithProfileDefaults sets the name and headline used when the document
// does not declare them.
func WithProfileDefaults(defaults ProfileDefaults) CorpusOption {
	return func(c *Corpus) {
		c.defaults = defaults
	}
}

// WithRebuildBackoff sets how long BuildPrompt reuses a failed build's error
// instead of rebuilding. Zero retries on every call.
func WithRebuildBackoff(d time.Duration) CorpusOption {
	return func(c *Corpus) {
		if d >= 0 {
			c.rebuildBackoff = d
		}
	}
}

// WithDebug enables ranking traces at debug level.
func WithDebug(debug bool) CorpusOption {
	return func(c *Corpus) {
		c.debug = debug
	}
}

// Corpus holds the chunked knowledge document and its embeddings, and turns
// user queries into grounded system prompts.
//
// Queries read the published snapshot without locking. Init serializes
// rebuilds and swaps the snapshot only after a build fully succeeds.
type Corpus struct {
	client   EmbeddingClient
	cache    *EmbeddingCache
	logger   *zap.Logger
	topK     int
	template string
	defaults ProfileDefaults
	debug    bool

	rebuildBackoff time.Duration

	mu          sync.Mutex
	snapshot    atomic.Pointer[corpusSnapshot]
	lastFailure atomic.Pointer[buildFailure]
}

// NewCorpus creates an empty Corpus. A nil cache disables persistence.
func NewCorpus(client EmbeddingClient, cache *EmbeddingCache, opts ...CorpusOption) *Corpus {
	c := &Corpus{
		client: client,
		cache:  cache,
		logger: zap.NewNop(),
		topK:   DefaultTopK,

		rebuildBackoff: DefaultRebuildBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewEmbeddingCache(nil, c.logger)
	}
	return c
}

// Init builds the corpus from document and publishes it. Calling it again
// with the same content does nothing; changed content replaces the whole
// corpus. On failure the previous snapshot, if any, stays published.
func (c *Corpus) Init(ctx context.Context, document string) error {
	return c.init(ctx, document, false)
}

func (c *Corpus) init(ctx context.Context, document string, throttled bool) error {
	docHash := hashDocument(document)
	if snap := c.snapshot.Load(); snap != nil && snap.docHash == docHash {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.snapshot.Load()
	if current != nil && current.docHash == docHash {
		return nil
	}
	if throttled {
		if err := c.recentFailure(docHash); err != nil {
			return err
		}
	}

	if strings.TrimSpace(document) == "" {
		return domain.ErrKnowledgeEmpty
	}

	chunks := ChunkKnowledge(document)
	if len(chunks) == 0 {
		return domain.ErrKnowledgeEmpty
	}

	fingerprint := Fingerprint(chunks)
	if current != nil && current.fingerprint == fingerprint {
		// Only whitespace outside the chunks changed.
		next := *current
		next.docHash = docHash
		c.snapshot.Store(&next)
		return nil
	}

	embeddings, err := c.cache.LoadOrBuild(ctx, chunks, c.client)
	if err != nil {
		c.logger.Error("corpus build failed", zap.Error(err))
		c.lastFailure.Store(&buildFailure{docHash: docHash, at: time.Now(), err: err})
		return err
	}
	c.lastFailure.Store(nil)

	c.snapshot.Store(&corpusSnapshot{
		docHash:     docHash,
		fingerprint: fingerprint,
		chunks:      chunks,
		embeddings:  embeddings,
		builtAt:     time.Now().UTC(),
	})

	c.logger.Info("corpus ready",
		zap.Int("chunks", len(chunks)),
		zap.String("fingerprint", fingerprint))
	telemetry.AddBreadcrumb(ctx, "corpus", "corpus published")

	return nil
}

// Search embeds query and ranks it against the published corpus.
func (c *Corpus) Search(ctx context.Context, query string) ([]domain.RankedResult, error) {
	snap := c.snapshot.Load()
	if snap == nil {
		return nil, domain.ErrCorpusNotReady
	}
	if c.client == nil {
		return nil, domain.ErrProviderUnavailable
	}

	ctx, span := telemetry.StartSpan(ctx, "Corpus.Search", telemetry.SpanAttributes{
		Operation:   "search",
		Fingerprint: snap.fingerprint,
		ChunkCount:  len(snap.chunks),
		TopK:        c.topK,
	})
	defer span.End()

	queryVector, err := c.client.GenerateEmbedding(ctx, query)
	if err != nil {
		err = domain.NewProviderError("failed to embed query", err)
		span.SetError(err)
		return nil, err
	}

	results, scored, err := rank(queryVector, snap.embeddings, snap.chunks, c.topK)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if c.debug {
		c.logRanking(query, snap, scored, results)
	}

	return results, nil
}

// BuildPrompt returns the system prompt for query, grounded in the chunks of
// document most relevant to it. The corpus is (re)built from document first
// when its content changed. A failed rebuild falls back to the last
// published corpus when there is one. A build that failed for the same
// document is not retried until the rebuild backoff has passed.
func (c *Corpus) BuildPrompt(ctx context.Context, document, query string) (string, error) {
	if err := c.init(ctx, document, true); err != nil {
		if !c.Ready() {
			return "", err
		}
		c.logger.Warn("corpus rebuild failed, serving previous corpus", zap.Error(err))
	}

	results, err := c.Search(ctx, query)
	if err != nil {
		return "", err
	}

	return ComposePrompt(c.Profile(document), results, c.template), nil
}

// recentFailure returns the error of a build of docHash that failed within
// the rebuild backoff.
func (c *Corpus) recentFailure(docHash string) error {
	f := c.lastFailure.Load()
	if f == nil || f.docHash != docHash || c.rebuildBackoff == 0 {
		return nil
	}
	if time.Since(f.at) >= c.rebuildBackoff {
		return nil
	}
	return f.err
}

// Profile extracts the profile from document using the configured defaults.
func (c *Corpus) Profile(document string) domain.Profile {
	return ExtractProfile(document, c.defaults)
}

// Ready reports whether a corpus has been published.
func (c *Corpus) Ready() bool {
	return c.snapshot.Load() != nil
}

// Stats describes the published corpus. It fails with NOT_READY before the
// first successful Init.
func (c *Corpus) Stats() (CorpusStats, error) {
	snap := c.snapshot.Load()
	if snap == nil {
		return CorpusStats{}, domain.ErrCorpusNotReady
	}
	return CorpusStats{
		Chunks:      len(snap.chunks),
		Fingerprint: snap.fingerprint,
		BuiltAt:     snap.builtAt,
	}, nil
}

// Chunks returns the published chunk list.
func (c *Corpus) Chunks() []domain.KnowledgeChunk {
	snap := c.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.chunks
}

func (c *Corpus) logRanking(query string, snap *corpusSnapshot, scored []scoredChunk, results []domain.RankedResult) {
	for i, s := range scored[:min(debugCandidates, len(scored))] {
		c.logger.Debug("ranking candidate",
			zap.String("query", query),
			zap.Int("rank", i+1),
			zap.String("type", snap.chunks[s.index].Type),
			zap.Float64("similarity", s.similarity))
	}

	types := make([]string, len(results))
	for i, r := range results {
		types[i] = r.Type
	}
	c.logger.Debug("ranking results",
		zap.Int("kept", len(results)),
		zap.Strings("types", types))
}

func hashDocument(document string) string {
	sum := sha256.Sum256([]byte(document))
	return hex.EncodeToString(sum[:])
}
