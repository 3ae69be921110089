package signalsearch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	healthuc "github.com/kailas-cloud/signalsearch/internal/usecase/health"
)

func TestNew_NoRedis(t *testing.T) {
	_, err := New(context.Background(), WithPostgres("postgres://localhost/signals"))
	if err == nil {
		t.Fatal("expected error when no redis address provided")
	}
}

func TestNew_NoPostgres(t *testing.T) {
	_, err := New(context.Background(), WithRedis("localhost:6379", ""))
	if err == nil {
		t.Fatal("expected error when no postgres dsn provided")
	}
}

func TestEngineConfig_Defaults(t *testing.T) {
	cc := &clientConfig{}
	WithRedis("localhost:6379", "secret").apply(cc)
	WithPostgres("postgres://localhost/signals").apply(cc)

	cfg, err := engineConfig(cc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Redis.Addrs[0] != "localhost:6379" || cfg.Redis.Password != "secret" {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Redis.KeyPrefix != "signalsearch:" || cfg.Redis.HNSWM != 16 {
		t.Errorf("redis defaults not applied: %+v", cfg.Redis)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("dimensions = %d, want 384", cfg.Embedding.Dimensions)
	}
	if cfg.Reranker.Kind != "local" {
		t.Errorf("reranker kind = %q, want local", cfg.Reranker.Kind)
	}
}

func TestEngineConfig_Options(t *testing.T) {
	cc := &clientConfig{}
	for _, o := range []Option{
		WithRedis("r:6379", ""),
		WithPostgres("postgres://p/s"),
		WithKeyPrefix("test:"),
		WithVectorDimensions(768),
		WithHNSW(32, 400),
		WithOpenAI("http://emb/v1", "key", "bge-small"),
		WithRerankServer("http://rerank:8082", "ms-marco", ""),
	} {
		o.apply(cc)
	}

	cfg, err := engineConfig(cc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Redis.KeyPrefix != "test:" || cfg.Redis.IndexName != "test:signals:idx" {
		t.Errorf("layout = %q / %q", cfg.Redis.KeyPrefix, cfg.Redis.IndexName)
	}
	if cfg.Redis.HNSWM != 32 || cfg.Redis.HNSWEFConstruct != 400 {
		t.Errorf("hnsw = (%d, %d)", cfg.Redis.HNSWM, cfg.Redis.HNSWEFConstruct)
	}
	if cfg.Embedding.Dimensions != 768 || cfg.Embedding.Model != "bge-small" || !cfg.Embedding.Cache {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
	if cfg.Reranker.Kind != "http" || cfg.Reranker.URL != "http://rerank:8082" || !cfg.Reranker.Breaker.Enabled {
		t.Errorf("reranker = %+v", cfg.Reranker)
	}
}

func TestEngineConfig_InvalidRerankURL(t *testing.T) {
	cc := &clientConfig{}
	WithRedis("r:6379", "").apply(cc)
	WithPostgres("postgres://p/s").apply(cc)
	WithRerankServer("not a url", "", "").apply(cc)

	if _, err := engineConfig(cc); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestEngineConfig_WithoutRerank(t *testing.T) {
	cc := &clientConfig{}
	WithRedis("r:6379", "").apply(cc)
	WithPostgres("postgres://p/s").apply(cc)
	WithRerankServer("http://rerank", "", "").apply(cc)
	WithoutRerank().apply(cc)

	cfg, err := engineConfig(cc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Reranker.Kind != "none" {
		t.Errorf("kind = %q, want none", cfg.Reranker.Kind)
	}
}

func TestEngineOptions(t *testing.T) {
	tests := []struct {
		name string
		cc   clientConfig
		want int
	}{
		{"no embedder falls back to noop", clientConfig{}, 1},
		{"openai needs no override", clientConfig{openAI: &openAIConfig{}}, 0},
		{"custom embedder", clientConfig{embedder: &mockEmbedder{}}, 1},
		{"custom embedder and reranker", clientConfig{embedder: &mockEmbedder{}, reranker: fixedReranker{}}, 2},
		{"reranker ignored when disabled", clientConfig{openAI: &openAIConfig{}, reranker: fixedReranker{}, noRerank: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(engineOptions(&tt.cc)); got != tt.want {
				t.Errorf("len(engineOptions) = %d, want %d", got, tt.want)
			}
		})
	}
}

type fixedReranker struct{}

func (fixedReranker) ScoreBatch(_ context.Context, _ string, texts []string) ([]float64, error) {
	return make([]float64, len(texts)), nil
}

func TestNoopEmbedder(t *testing.T) {
	_, err := noopEmbedder{}.Embed(context.Background(), "test")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("err = %v, want ErrEmbeddingProviderError", err)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	_, err := adapter.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("err = %v, want ErrEmbeddingProviderError", err)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	logger := zap.NewExample()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)
	if cfg.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestClient_Close_NilEngine(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestHealth(t *testing.T) {
	c := testClient(nil, nil)
	c.healthSvc = &mockHealthUC{report: healthReport()}

	h := c.Health(context.Background())
	if !h.Degraded() || h.Checks["reranker"] != "not_ready" || h.Checks["index"] != "ok" {
		t.Errorf("unexpected health %+v", h)
	}
}

func healthReport() healthuc.Report {
	return healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			"index":    healthuc.CheckOK,
			"reranker": healthuc.CheckNotReady,
		},
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("search", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("search", time.Now(), errors.New("fail"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "signalsearch_sdk_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("signalsearch_sdk_operations_total not found")
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first observer: %v", err)
	}
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second observer on the same registry: %v", err)
	}
}

func TestObserver_WithLogger(t *testing.T) {
	core, logs := zapobserver.New(zapcore.DebugLevel)
	obs, err := newObserver(zap.New(core), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("index", time.Now(), nil)
	obs.observe("index", time.Now(), errors.New("test error"))

	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 1 {
		t.Errorf("warn entries = %d, want 1", n)
	}
	if n := logs.FilterField(zap.String("op", "index")).Len(); n != 2 {
		t.Errorf("entries for op=index = %d, want 2", n)
	}
}

func TestObserver_RejectedCallsAreNotFailures(t *testing.T) {
	core, logs := zapobserver.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	obs, err := newObserver(zap.New(core), reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("search", time.Now(), fmt.Errorf("query: %w", ErrInvalidRequest), workspaceField(testWS))
	obs.observe("remove", time.Now(), ErrNotFound)

	if n := logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 0 {
		t.Errorf("warn entries = %d, want 0", n)
	}
	if n := logs.FilterMessage("operation rejected").Len(); n != 2 {
		t.Errorf("rejected entries = %d, want 2", n)
	}
	if n := logs.FilterField(zap.Stringer("workspace_id", testWS)).Len(); n != 1 {
		t.Errorf("entries with workspace_id = %d, want 1", n)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("search", statusRejected)); got != 1 {
		t.Errorf("rejected search count = %v, want 1", got)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, statusOK},
		{ErrInvalidRequest, statusRejected},
		{fmt.Errorf("wrapped: %w", ErrNotFound), statusRejected},
		{ErrEmbeddingProviderError, statusError},
		{errors.New("boom"), statusError},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestReady(t *testing.T) {
	c := testClient(nil, nil)
	c.healthSvc = &mockHealthUC{readiness: healthuc.Readiness{Ready: false, NotReady: []string{"reranker"}}}

	ready, pending := c.Ready(context.Background())
	if ready || len(pending) != 1 || pending[0] != "reranker" {
		t.Errorf("Ready() = %v, %v", ready, pending)
	}
}
