// Package admin implements the foliod daemon commands.
package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/folio/internal/cli"
	"github.com/cloo-solutions/folio/internal/config"
	"github.com/cloo-solutions/folio/internal/database"
	"github.com/cloo-solutions/folio/internal/domain"
	"github.com/cloo-solutions/folio/internal/openai"
	"github.com/cloo-solutions/folio/internal/service"
	"github.com/cloo-solutions/folio/internal/storage"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// runtime bundles what the daemon commands share.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	knowledge *storage.KnowledgeFile
	prompt    *config.PromptConfig
	openai    *openai.Client
	corpus    *service.Corpus
	closers   []func()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newRuntime loads the configuration and wires the corpus with its cache
// store. The OpenAI client is nil when no API key is configured.
func newRuntime(ctx context.Context, overrides cli.Overrides) (*runtime, error) {
	cfg, err := cli.LoadConfig(overrides)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	rt := &runtime{
		cfg:       cfg,
		logger:    logger,
		knowledge: storage.NewKnowledgeFile(cfg.KnowledgePath),
	}

	prompt, err := config.LoadPrompt(cfg.PromptConfigPath)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.prompt = prompt

	store, err := rt.newCacheStore(ctx)
	if err != nil {
		rt.close()
		return nil, err
	}

	var embedder service.EmbeddingClient
	if cfg.HasOpenAI() {
		client, err := openai.NewClientFromConfig(openAIConfig(cfg))
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.openai = client
		embedder = client
	}

	rt.corpus = service.NewCorpus(embedder, service.NewEmbeddingCache(store, logger).WithDimensions(cfg.EmbeddingDimensions),
		service.WithLogger(logger),
		service.WithTopK(cfg.TopK),
		service.WithTemplate(prompt.Template()),
		service.WithProfileDefaults(service.ProfileDefaults{
			Name:     prompt.FallbackProfileName,
			Headline: prompt.FallbackHeadline,
		}),
		service.WithDebug(cfg.DebugEmbeddings),
		service.WithRebuildBackoff(cfg.RebuildBackoff),
	)

	return rt, nil
}

func openAIConfig(cfg *config.Config) openai.Config {
	return openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		ChatModel:           cfg.ChatModel,
		MaxTokens:           cfg.MaxTokens,
		Temperature:         cfg.Temperature,
		Timeout:             cfg.EmbeddingTimeout,
	}
}

func (rt *runtime) newCacheStore(ctx context.Context) (service.CacheStore, error) {
	cfg := rt.cfg

	switch cfg.CacheBackend {
	case config.CacheBackendFile:
		rt.logger.Info("embedding cache: file", zap.String("path", cfg.CachePath))
		return storage.NewFileCacheStore(cfg.CachePath), nil

	case config.CacheBackendS3:
		store, err := storage.NewS3CacheStore(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			Key:             cfg.S3CacheKey,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 cache store: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		rt.logger.Info("embedding cache: s3", zap.String("bucket", cfg.S3Bucket), zap.String("key", cfg.S3CacheKey))
		return store, nil

	case config.CacheBackendPostgres:
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)

		if err := database.Migrate(cfg.DatabaseURL, rt.logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		rt.logger.Info("embedding cache: postgres")
		return storage.NewPostgresCacheStore(pool), nil
	}

	return nil, domain.NewConfigError(fmt.Sprintf("unknown cache backend %q", cfg.CacheBackend))
}

// requireOpenAI fails commands that cannot work without embeddings.
func (rt *runtime) requireOpenAI() error {
	if rt.openai == nil {
		return domain.NewConfigError("OPENAI_API_KEY is required")
	}
	return nil
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	_ = rt.logger.Sync()
}
