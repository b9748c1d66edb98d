package server

import (
	"net/http"

	"github.com/cloo-solutions/folio/internal/api/handlers"
	"github.com/cloo-solutions/folio/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes bounds chat request bodies.
const DefaultMaxBodyBytes int64 = 64 * 1024

type RouterConfig struct {
	Logger             *zap.Logger
	ChatHandler        *handlers.ChatHandler
	StatusHandler      *handlers.StatusHandler
	// SuggestionsHandler is optional; without it /api/suggestions is not routed.
	SuggestionsHandler *handlers.SuggestionsHandler
	MaxBodyBytes       int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.StatusHandler.Health)
	r.Get("/ready", cfg.StatusHandler.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", cfg.ChatHandler.Chat)
		if cfg.SuggestionsHandler != nil {
			r.Get("/suggestions", cfg.SuggestionsHandler.List)
		}
	})

	return r
}
