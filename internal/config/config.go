package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/folio/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Cache backends
const (
	CacheBackendFile     = "file"
	CacheBackendS3       = "s3"
	CacheBackendPostgres = "postgres"
)

// Variables are read with the FOLIO_ prefix first and fall back to the bare
// name, so a plain OPENAI_API_KEY is honored.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	KnowledgePath    string        `envconfig:"KNOWLEDGE_PATH" default:"knowledge.md"`
	PromptConfigPath string        `envconfig:"PROMPT_CONFIG_PATH" default:"config.yaml"`
	ReloadInterval   time.Duration `envconfig:"RELOAD_INTERVAL" default:"0s"`

	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string        `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-large"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"0"`
	EmbeddingTimeout    time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"30s"`
	ChatModel           string        `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	MaxTokens           int           `envconfig:"MAX_TOKENS" default:"2000"`
	Temperature         float32       `envconfig:"TEMPERATURE" default:"0"`
	TopK                int           `envconfig:"TOP_K" default:"5"`
	DebugEmbeddings     bool          `envconfig:"DEBUG_EMBEDDINGS" default:"false"`
	RebuildBackoff      time.Duration `envconfig:"REBUILD_BACKOFF" default:"30s"`

	CacheBackend string `envconfig:"CACHE_BACKEND" default:"file"`
	CachePath    string `envconfig:"CACHE_PATH" default:".embeddings_cache.json"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"folio-cache"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3CacheKey  string `envconfig:"S3_CACHE_KEY" default:"folio/embeddings_cache.json"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("FOLIO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))

	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheBackendFile:
		if c.CachePath == "" {
			return domain.NewConfigError("CACHE_PATH is required for the file cache backend")
		}
	case CacheBackendS3:
		if !c.HasS3() {
			return domain.NewConfigError("S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for the s3 cache backend")
		}
	case CacheBackendPostgres:
		if !c.HasDatabase() {
			return domain.NewConfigError("DATABASE_URL is required for the postgres cache backend")
		}
	default:
		return domain.NewConfigError(fmt.Sprintf("unknown cache backend %q", c.CacheBackend))
	}

	if c.TopK <= 0 {
		return domain.NewConfigError("TOP_K must be positive")
	}
	if c.ReloadInterval < 0 {
		return domain.NewConfigError("RELOAD_INTERVAL must not be negative")
	}
	if c.RebuildBackoff < 0 {
		return domain.NewConfigError("REBUILD_BACKOFF must not be negative")
	}

	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
