package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DocumentRefresher re-reads the knowledge document.
type DocumentRefresher interface {
	Refresh() (content string, changed bool, err error)
}

// CorpusInitializer rebuilds the corpus from a document.
type CorpusInitializer interface {
	Init(ctx context.Context, document string) error
}

// KnowledgeReloader rebuilds the corpus whenever the knowledge document
// changes. A failed rebuild leaves the previous corpus in service and is
// retried on the next run.
type KnowledgeReloader struct {
	source DocumentRefresher
	corpus CorpusInitializer
	logger *zap.Logger

	// set after a failed rebuild
	pending bool
}

// NewKnowledgeReloader creates a new KnowledgeReloader instance
func NewKnowledgeReloader(source DocumentRefresher, corpus CorpusInitializer, logger *zap.Logger) *KnowledgeReloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeReloader{source: source, corpus: corpus, logger: logger}
}

// ProcessJobs implements the JobProcessor interface
func (r *KnowledgeReloader) ProcessJobs(ctx context.Context) error {
	content, changed, err := r.source.Refresh()
	if err != nil {
		return fmt.Errorf("failed to refresh knowledge: %w", err)
	}
	if !changed && !r.pending {
		return nil
	}

	r.logger.Info("knowledge changed, rebuilding corpus",
		zap.Int("bytes", len(content)),
		zap.Bool("retry", !changed))

	if err := r.corpus.Init(ctx, content); err != nil {
		r.pending = true
		return fmt.Errorf("failed to rebuild corpus: %w", err)
	}

	r.pending = false
	return nil
}

// Retry schedules a rebuild on the next run even if the document has not
// changed. It must be called before the worker starts.
func (r *KnowledgeReloader) Retry() {
	r.pending = true
}
