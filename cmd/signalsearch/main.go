// Command signalsearch serves the hybrid search API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/app"
	"github.com/kailas-cloud/signalsearch/internal/config"
	logpkg "github.com/kailas-cloud/signalsearch/internal/logger"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
	chiTransport "github.com/kailas-cloud/signalsearch/internal/transport/chi"
	"github.com/kailas-cloud/signalsearch/internal/version"
)

func main() {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}

	err = run(cfg, logger)
	_ = logger.Sync()
	if err != nil {
		logger.Error("signalsearch exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	logger.Info("starting signalsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
		zap.String("reranker", cfg.Reranker.Kind),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("wire engine: %w", err)
	}
	defer engine.Close()

	created, err := engine.EnsureIndex(ctx)
	if err != nil {
		return fmt.Errorf("ensure search index: %w", err)
	}
	logger.Info("search index ready",
		zap.String("index", cfg.Redis.IndexName),
		zap.Bool("created", created),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// /ready reports providers as not ready until warm-up finishes.
	go engine.Warm(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router(cfg, engine, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func router(cfg config.Config, engine *app.App, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chiTransport.Recoverer(logger))
	r.Use(middleware.RequestID)
	r.Use(chiTransport.RequestLog(logger))
	r.Use(chiTransport.BearerAuthMiddleware(chiTransport.Keys{
		Search: cfg.Auth.APIKeys,
		Index:  cfg.Auth.IndexAPIKeys,
	}))
	r.Use(metrics.Middleware("/health", "/ready", "/metrics"))

	chiTransport.NewServer(engine.Search, engine.Indexer, engine.Analytics, engine.Health, logger).Routes(r)
	return r
}
