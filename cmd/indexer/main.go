package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/signalsearch/internal/app"
	"github.com/kailas-cloud/signalsearch/internal/config"
	logpkg "github.com/kailas-cloud/signalsearch/internal/logger"
	natsbus "github.com/kailas-cloud/signalsearch/internal/transport/nats"
	"github.com/kailas-cloud/signalsearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()
	logger = logpkg.Component(logger, "indexer")

	logger.Info("Starting signalsearch indexer",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("nats_url", cfg.NATS.URL),
		zap.String("queue_group", cfg.NATS.QueueGroup),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to wire engine", zap.Error(err))
	}
	defer engine.Close()

	if _, err := engine.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}
	engine.Warm(ctx)

	bus, err := natsbus.Connect(cfg.NATS.URL, natsbus.Options{
		Name:          "signalsearch-indexer",
		ReconnectWait: 2 * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer bus.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.Subscribe(gctx, cfg.NATS.CreatedSubject, cfg.NATS.QueueGroup, onCreated(engine.Indexer, logger))
	})
	g.Go(func() error {
		return bus.Subscribe(gctx, cfg.NATS.DeletedSubject, cfg.NATS.QueueGroup, onDeleted(engine.Indexer, logger))
	})

	if err := g.Wait(); err != nil {
		logger.Error("Indexer stopped with error", zap.Error(err))
		return
	}
	logger.Info("Indexer stopped gracefully")
}
