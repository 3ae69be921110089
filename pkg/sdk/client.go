package signalsearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/app"
	"github.com/kailas-cloud/signalsearch/internal/config"
	"github.com/kailas-cloud/signalsearch/internal/db"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	indexeruc "github.com/kailas-cloud/signalsearch/internal/usecase/indexer"
)

// Internal interfaces, replaced by mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (*result.Response, error)
	Trends(ctx context.Context, t *request.Trend) (*result.Response, error)
	Whitespace(ctx context.Context, w *request.Whitespace) (*result.Response, error)
}

type indexUseCase interface {
	IndexByID(ctx context.Context, workspaceID, signalID uuid.UUID) error
	Remove(ctx context.Context, signalID uuid.UUID) error
	Count(ctx context.Context, workspaceID uuid.UUID) (int, error)
	Reindex(ctx context.Context, workspaceID uuid.UUID) (indexeruc.ReindexReport, error)
}

type indexManager interface {
	Ensure(ctx context.Context) (bool, error)
	Drop(ctx context.Context) error
	Stats(ctx context.Context) (db.IndexInfo, error)
}

// Client is the signalsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	engine    *app.App
	searchSvc searchUseCase
	indexSvc  indexUseCase
	indexMgr  indexManager
	healthSvc healthUseCase
	obs       *observer
}

// New wires an in-process engine and connects to Redis and Postgres.
// The provided context bounds the initial connection and provider warm-up.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	cfg, err := engineConfig(cc)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	engine, err := app.New(ctx, cfg, cc.logger, engineOptions(cc)...)
	if err != nil {
		return nil, fmt.Errorf("signalsearch: %w", err)
	}
	engine.Warm(ctx)

	return &Client{
		engine:    engine,
		searchSvc: engine.Search,
		indexSvc:  engine.Indexer,
		indexMgr:  engine.Index,
		healthSvc: engine.Health,
		obs:       obs,
	}, nil
}

// engineConfig translates options into the engine configuration.
func engineConfig(cc *clientConfig) (config.Config, error) {
	if len(cc.addrs) == 0 {
		return config.Config{}, errors.New("signalsearch: redis address required (use WithRedis)")
	}
	if cc.postgresDSN == "" {
		return config.Config{}, errors.New("signalsearch: postgres dsn required (use WithPostgres)")
	}

	cfg := config.Config{
		Redis: config.RedisConfig{
			Addrs:           cc.addrs,
			Password:        cc.password,
			KeyPrefix:       cc.keyPrefix,
			HNSWM:           cc.hnswM,
			HNSWEFConstruct: cc.hnswEFConstruct,
		},
		Postgres: config.PostgresConfig{DSN: cc.postgresDSN},
		Embedding: config.EmbeddingConfig{
			Dimensions:          cc.vectorDimensions,
			DocumentInstruction: cc.instructions.document,
			QueryInstruction:    cc.instructions.query,
		},
	}
	if oa := cc.openAI; oa != nil {
		cfg.Embedding.BaseURL = oa.baseURL
		cfg.Embedding.APIKey = oa.apiKey
		cfg.Embedding.Model = oa.model
		cfg.Embedding.Cache = true
	}
	switch {
	case cc.noRerank:
		cfg.Reranker.Kind = "none"
	case cc.rerankURL != "":
		cfg.Reranker.Kind = "http"
		cfg.Reranker.URL = cc.rerankURL
		cfg.Reranker.Model = cc.rerankModel
		cfg.Reranker.APIKey = cc.rerankAPIKey
		cfg.Reranker.Breaker.Enabled = true
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("signalsearch: %w", err)
	}
	return cfg, nil
}

func engineOptions(cc *clientConfig) []app.Option {
	var opts []app.Option
	switch {
	case cc.embedder != nil:
		opts = append(opts, app.WithEmbedder(&embedderAdapter{inner: cc.embedder}))
	case cc.openAI == nil:
		opts = append(opts, app.WithEmbedder(noopEmbedder{}))
	}
	if cc.reranker != nil && !cc.noRerank {
		opts = append(opts, app.WithReranker(cc.reranker))
	}
	return opts
}

// Close releases all resources.
func (c *Client) Close() {
	if c.engine != nil {
		c.engine.Close()
	}
}
