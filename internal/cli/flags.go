package cli

import (
	"strings"

	"github.com/cloo-solutions/folio/internal/config"
	"github.com/spf13/pflag"
)

// Overrides are command line values layered over the environment config.
// Empty fields leave the loaded value untouched.
type Overrides struct {
	KnowledgePath string
	CacheBackend  string
	CachePath     string
}

// BindFlags registers the shared knowledge and cache flags on fs.
func BindFlags(fs *pflag.FlagSet, o *Overrides) {
	fs.StringVarP(&o.KnowledgePath, "knowledge", "k", "", "Knowledge markdown file (overrides KNOWLEDGE_PATH)")
	fs.StringVar(&o.CacheBackend, "cache-backend", "", "Embedding cache backend: file, s3 or postgres (overrides CACHE_BACKEND)")
	fs.StringVar(&o.CachePath, "cache-path", "", "Embedding cache file for the file backend (overrides CACHE_PATH)")
}

// Apply copies the non-empty overrides onto cfg.
func (o Overrides) Apply(cfg *config.Config) {
	if v := strings.TrimSpace(o.KnowledgePath); v != "" {
		cfg.KnowledgePath = v
	}
	if v := strings.TrimSpace(o.CacheBackend); v != "" {
		cfg.CacheBackend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(o.CachePath); v != "" {
		cfg.CachePath = v
	}
}

// LoadConfig reads the environment, applies o and validates the result.
func LoadConfig(o Overrides) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	o.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
