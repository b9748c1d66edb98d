package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/folio/internal/api/handlers"
	"github.com/cloo-solutions/folio/internal/cli"
	"github.com/cloo-solutions/folio/internal/jobs"
	"github.com/cloo-solutions/folio/internal/server"
	"github.com/cloo-solutions/folio/internal/service"
	"github.com/cloo-solutions/folio/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var overrides cli.Overrides

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		Long:  "Build the knowledge corpus and serve the chat API on the configured port",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetString("port")
			return runServe(cmd.Context(), overrides, port)
		},
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides PORT)")
	cli.BindFlags(cmd.Flags(), &overrides)

	return cmd
}

func runServe(ctx context.Context, overrides cli.Overrides, port string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx, overrides)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer rt.close()

	cfg, logger := rt.cfg, rt.logger
	if port != "" {
		cfg.Port = port
	}

	// Default to 10% sampling in production, 100% in development
	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}
	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	}, logger)
	if err != nil {
		logger.Warn("telemetry init failed (continuing without tracing)", zap.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	if !cfg.HasOpenAI() {
		logger.Warn("OPENAI_API_KEY not set: corpus and chat are disabled")
	}

	document, _, err := rt.knowledge.Refresh()
	if err != nil {
		logger.Error("failed to read knowledge file", zap.String("path", rt.knowledge.Path()), zap.Error(err))
	}
	initErr := rt.corpus.Init(ctx, document)
	if initErr != nil {
		// Chat still answers through the fallback prompt.
		logger.Error("corpus build failed, serving without grounding", zap.Error(initErr))
		telemetry.CaptureError(ctx, initErr)
	} else if stats, err := rt.corpus.Stats(); err == nil {
		logger.Info("corpus ready", zap.Int("chunks", stats.Chunks), zap.String("fingerprint", stats.Fingerprint))
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var reloadWorker *jobs.Worker
	if cfg.ReloadInterval > 0 {
		reloader := jobs.NewKnowledgeReloader(rt.knowledge, rt.corpus, logger)
		if initErr != nil {
			reloader.Retry()
		}
		reloadWorker = jobs.NewWorker(reloader, cfg.ReloadInterval, logger)
		go reloadWorker.Start(workerCtx)
		logger.Info("knowledge reload worker started", zap.Duration("interval", cfg.ReloadInterval))
	}

	var completer service.ChatCompleter
	if rt.openai != nil {
		completer = rt.openai
	}
	chatSvc := service.NewChatService(rt.corpus, completer, rt.knowledge, logger)

	suggester := service.NewSuggester(rt.prompt.Suggestions.Fixed, rt.prompt.Suggestions.Candidates)

	router := server.NewRouter(server.RouterConfig{
		Logger:             logger,
		ChatHandler:        handlers.NewChatHandler(chatSvc),
		StatusHandler:      handlers.NewStatusHandler(rt.corpus),
		SuggestionsHandler: handlers.NewSuggestionsHandler(suggester),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	if reloadWorker != nil {
		reloadWorker.Stop()
	}
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
