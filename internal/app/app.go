// Package app is the composition root shared by the API server, the indexer worker and the SDK.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/config"
	dbRedis "github.com/kailas-cloud/signalsearch/internal/db/redis"
	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
	analyticsrepo "github.com/kailas-cloud/signalsearch/internal/repository/analytics"
	documentrepo "github.com/kailas-cloud/signalsearch/internal/repository/document"
	"github.com/kailas-cloud/signalsearch/internal/repository/embcache"
	indexrepo "github.com/kailas-cloud/signalsearch/internal/repository/index"
	searchrepo "github.com/kailas-cloud/signalsearch/internal/repository/search"
	signalrepo "github.com/kailas-cloud/signalsearch/internal/repository/signal"
	"github.com/kailas-cloud/signalsearch/internal/resilience"
	openaiEmb "github.com/kailas-cloud/signalsearch/internal/transport/openai"
	rerankclient "github.com/kailas-cloud/signalsearch/internal/transport/rerank"
	analyticsuc "github.com/kailas-cloud/signalsearch/internal/usecase/analytics"
	embeddinguc "github.com/kailas-cloud/signalsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/signalsearch/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/signalsearch/internal/usecase/indexer"
	"github.com/kailas-cloud/signalsearch/internal/usecase/provider"
	rerankuc "github.com/kailas-cloud/signalsearch/internal/usecase/rerank"
	searchuc "github.com/kailas-cloud/signalsearch/internal/usecase/search"
)

const embeddingCacheTTL = 30 * 24 * time.Hour

// Option overrides a component built from config.
type Option func(*overrides)

type overrides struct {
	embedder domain.Embedder
	reranker domain.Reranker
	noRerank bool
}

// WithEmbedder replaces the configured embedding provider.
func WithEmbedder(e domain.Embedder) Option {
	return func(o *overrides) { o.embedder = e }
}

// WithReranker replaces the configured reranker. A nil reranker disables reranking.
func WithReranker(r domain.Reranker) Option {
	return func(o *overrides) {
		o.reranker = r
		o.noRerank = r == nil
	}
}

type warmer interface {
	Name() string
	Warm(ctx context.Context) error
}

// App holds the wired engine.
type App struct {
	Config config.Config

	Store   *dbRedis.Store
	DB      *sql.DB
	Signals *signalrepo.Repo
	Index   *indexrepo.Manager

	Search    *searchuc.Service
	Indexer   *indexeruc.Service
	Analytics *analyticsuc.Service
	Health    *healthuc.Service

	gates  []warmer
	logger *zap.Logger
}

// New connects the stores and wires every service. Providers stay unloaded until Warm
// or their first use.
func New(ctx context.Context, cfg config.Config, l *zap.Logger, opts ...Option) (*App, error) {
	if l == nil {
		l = zap.NewNop()
	}
	var ov overrides
	for _, o := range opts {
		o(&ov)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("redis not ready: %w", err)
	}

	sqlDB, err := signalrepo.OpenDB(ctx, cfg.Postgres.DSN, signalrepo.PoolConfig{
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	signals := signalrepo.New(sqlDB)
	if cfg.Postgres.EnsureSchema {
		if err := signals.EnsureSchema(ctx); err != nil {
			store.Close()
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ensure signal schema: %w", err)
		}
	}

	a := &App{Config: cfg, Store: store, DB: sqlDB, Signals: signals, logger: l}
	if err := a.wire(ov); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ov overrides) error {
	cfg := a.Config
	l := a.logger

	layout := indexrepo.NewLayout(cfg.Redis.KeyPrefix, cfg.Redis.IndexName)
	a.Index = indexrepo.NewManager(a.Store, layout, cfg.Embedding.Dimensions, indexrepo.HNSW{
		M:           cfg.Redis.HNSWM,
		EFConstruct: cfg.Redis.HNSWEFConstruct,
	})

	embGate := a.embedderGate(ov)
	embedder := embeddinguc.NewGated(embGate)
	docEmbedder := domain.WithInstruction(embedder, cfg.Embedding.DocumentInstruction)
	queryEmbedder := domain.WithInstruction(embedder, cfg.Embedding.QueryInstruction)
	a.gates = append(a.gates, embGate)

	health := healthuc.New(a.Store, a.Signals).WithProvider("embedding", embedder)
	gates := []healthuc.Gate{embGate}

	var reranker domain.Reranker
	if rrGate := rerankerGate(cfg.Reranker, ov); rrGate != nil {
		var breaker *resilience.Breaker[[]float64]
		if b := cfg.Reranker.Breaker; b.Enabled {
			breaker = resilience.NewBreaker[[]float64]("reranker", resilience.BreakerConfig{
				MinRequests:  b.MinRequests,
				FailureRatio: b.FailureRatio,
				OpenTimeout:  time.Duration(b.OpenTimeoutSec) * time.Second,
			}, l)
		}
		guarded := rerankuc.NewGuarded(rrGate, rerankuc.NewLimiter(cfg.Reranker.RateRPS, cfg.Reranker.RateBurst), breaker)
		reranker = guarded
		health = health.WithProvider("reranker", guarded)
		gates = append(gates, rrGate)
		a.gates = append(a.gates, rrGate)
	}
	a.Health = health.WithGates(gates...)

	a.Analytics = analyticsuc.New(
		analyticsrepo.New(a.Store, cfg.Redis.KeyPrefix, time.Duration(cfg.Search.AnalyticsTTLDays)*24*time.Hour),
		cfg.Search.AnalyticsTTLDays, l,
	)

	search, err := searchuc.New(
		searchrepo.New(a.Store, layout), a.Signals, queryEmbedder, reranker,
		searchuc.Config{
			RetrievalTimeout:  time.Duration(cfg.Search.RetrievalTimeoutMs) * time.Millisecond,
			DeterministicTies: cfg.Search.DeterministicTies,
			WhitespaceWorkers: cfg.Search.WhitespaceWorkers,
		}, l,
	)
	if err != nil {
		return err
	}
	a.Search = search.WithRecorder(a.Analytics)

	indexer, err := indexeruc.New(documentrepo.New(a.Store, layout), a.Signals, docEmbedder, cfg.Search.ReindexWorkers, l)
	if err != nil {
		return err
	}
	a.Indexer = indexer
	return nil
}

// embedderGate builds OpenAI -> Cached -> Instrumented behind a lazy gate. The instruction
// prefix is applied outside the gate so the cache key includes it.
func (a *App) embedderGate(ov overrides) *provider.Gate[domain.Embedder] {
	if ov.embedder != nil {
		return provider.Ready[domain.Embedder]("embedding", ov.embedder)
	}
	cfg := a.Config.Embedding
	store := a.Store
	cachePrefix := a.Config.Redis.KeyPrefix
	l := a.logger

	return provider.NewGate[domain.Embedder]("embedding", func(ctx context.Context) (domain.Embedder, error) {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     l,
		})
		if err := base.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("embedding provider %s: %w", cfg.Provider, err)
		}

		var e domain.Embedder = base
		if cfg.Cache {
			e = embcache.New(base, store, embcache.Options{
				Prefix: cachePrefix,
				Model:  cfg.Model,
				TTL:    embeddingCacheTTL,
			}, metrics.EmbeddingCacheTotal, l)
		}
		return embeddinguc.Observe(e, cfg.Provider, cfg.Model, l), nil
	})
}

// rerankerGate returns nil when reranking is disabled.
func rerankerGate(cfg config.RerankerConfig, ov overrides) *provider.Gate[domain.Reranker] {
	switch {
	case ov.noRerank:
		return nil
	case ov.reranker != nil:
		return provider.Ready[domain.Reranker]("reranker", ov.reranker)
	}

	switch cfg.Kind {
	case "none":
		return nil
	case "http":
		return provider.NewGate[domain.Reranker]("reranker", func(ctx context.Context) (domain.Reranker, error) {
			c := rerankclient.NewClient(rerankclient.Config{
				BaseURL: cfg.URL,
				APIKey:  cfg.APIKey,
				Model:   cfg.Model,
				Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
			})
			if err := c.HealthCheck(ctx); err != nil {
				return nil, fmt.Errorf("rerank server: %w", err)
			}
			return c, nil
		})
	default:
		return provider.Ready[domain.Reranker]("reranker", rerankuc.NewLocal())
	}
}

// Warm loads every provider. Failures are logged and the engine keeps running degraded.
func (a *App) Warm(ctx context.Context) {
	for _, g := range a.gates {
		if err := g.Warm(ctx); err != nil {
			a.logger.Warn("provider warm-up failed", zap.String("provider", g.Name()), zap.Error(err))
			continue
		}
		a.logger.Info("provider ready", zap.String("provider", g.Name()))
	}
}

// EnsureIndex creates the FT index if it does not exist.
func (a *App) EnsureIndex(ctx context.Context) (bool, error) {
	return a.Index.Ensure(ctx)
}

// Close releases pools and connections.
func (a *App) Close() {
	if a.Search != nil {
		a.Search.Release()
	}
	if a.Indexer != nil {
		a.Indexer.Release()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			a.logger.Warn("close postgres", zap.Error(err))
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
