package config

import (
	"testing"
	"time"

	"github.com/cloo-solutions/folio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithEnvVars(t *testing.T) {
	t.Setenv("FOLIO_PORT", "9090")
	t.Setenv("FOLIO_DEBUG", "true")
	t.Setenv("FOLIO_KNOWLEDGE_PATH", "/data/knowledge.md")
	t.Setenv("FOLIO_CACHE_BACKEND", " S3 ")
	t.Setenv("FOLIO_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("FOLIO_S3_ACCESS_KEY_ID", "key")
	t.Setenv("FOLIO_S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("FOLIO_TOP_K", "3")
	t.Setenv("FOLIO_TEMPERATURE", "0.4")
	t.Setenv("FOLIO_RELOAD_INTERVAL", "30s")
	t.Setenv("FOLIO_OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/data/knowledge.md", cfg.KnowledgePath)
	assert.Equal(t, CacheBackendS3, cfg.CacheBackend)
	assert.Equal(t, "http://localhost:9000", cfg.S3Endpoint)
	assert.Equal(t, "key", cfg.S3AccessKey)
	assert.Equal(t, "secret", cfg.S3SecretKey)
	assert.Equal(t, 3, cfg.TopK)
	assert.InDelta(t, 0.4, cfg.Temperature, 1e-6)
	assert.Equal(t, 30*time.Second, cfg.ReloadInterval)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_UnprefixedFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-plain")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-plain", cfg.OpenAIAPIKey)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "knowledge.md", cfg.KnowledgePath)
	assert.Equal(t, "config.yaml", cfg.PromptConfigPath)
	assert.Equal(t, "text-embedding-3-large", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, 2000, cfg.MaxTokens)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, CacheBackendFile, cfg.CacheBackend)
	assert.Equal(t, ".embeddings_cache.json", cfg.CachePath)
	assert.Equal(t, "folio-cache", cfg.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, time.Duration(0), cfg.ReloadInterval)
	assert.Equal(t, 30*time.Second, cfg.RebuildBackoff)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{CacheBackend: CacheBackendFile, CachePath: "cache.json", TopK: 5}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "file ok", mutate: func(c *Config) {}},
		{name: "file without path", mutate: func(c *Config) { c.CachePath = "" }, wantErr: "CACHE_PATH"},
		{name: "unknown backend", mutate: func(c *Config) { c.CacheBackend = "redis" }, wantErr: "redis"},
		{name: "s3 without credentials", mutate: func(c *Config) { c.CacheBackend = CacheBackendS3 }, wantErr: "S3_ENDPOINT"},
		{name: "postgres without url", mutate: func(c *Config) { c.CacheBackend = CacheBackendPostgres }, wantErr: "DATABASE_URL"},
		{name: "postgres ok", mutate: func(c *Config) {
			c.CacheBackend = CacheBackendPostgres
			c.DatabaseURL = "postgres://localhost/folio"
		}},
		{name: "zero top k", mutate: func(c *Config) { c.TopK = 0 }, wantErr: "TOP_K"},
		{name: "negative reload", mutate: func(c *Config) { c.ReloadInterval = -time.Second }, wantErr: "RELOAD_INTERVAL"},
		{name: "negative rebuild backoff", mutate: func(c *Config) { c.RebuildBackoff = -time.Second }, wantErr: "REBUILD_BACKOFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.HasCode(err, domain.ErrCodeConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHasS3(t *testing.T) {
	cfg := &Config{
		S3Endpoint:  "http://localhost:9000",
		S3AccessKey: "key",
		S3SecretKey: "secret",
	}
	assert.True(t, cfg.HasS3())

	cfg.S3Endpoint = ""
	assert.False(t, cfg.HasS3())
}

func TestHasOpenAI(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk-test"}
	assert.True(t, cfg.HasOpenAI())

	cfg.OpenAIAPIKey = ""
	assert.False(t, cfg.HasOpenAI())
}

func TestHasDatabase(t *testing.T) {
	assert.True(t, (&Config{DatabaseURL: "postgres://x"}).HasDatabase())
	assert.False(t, (&Config{}).HasDatabase())
}
