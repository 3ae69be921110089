package search

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
	"github.com/kailas-cloud/signalsearch/internal/usecase/provider"
	rerankuc "github.com/kailas-cloud/signalsearch/internal/usecase/rerank"
)

func mustRequest(t *testing.T, query string, f request.Filter, limit int) *request.Request {
	t.Helper()
	r, err := request.New(testWorkspace, query, f, limit, request.DefaultWeights())
	if err != nil {
		t.Fatalf("request.New() error: %v", err)
	}
	return &r
}

func scenarioStore() *mockSignals {
	return signalStore(
		testSignal(s1, "AI machine learning platform", "github", testNow),
		testSignal(s2, "Neural network tooling", "rss", testNow),
		testSignal(s3, "Payments", "crunchbase", testNow),
	)
}

func TestSearch_HybridScenario(t *testing.T) {
	retr := &mockRetriever{
		lexical: lexicalHits(s1, 1.5),
		vector:  hits(s1, 0.95, s2, 0.95),
	}
	rec := &mockRecorder{}
	svc := newTestService(t, retr, scenarioStore(), &mockEmbedder{}, nil, Config{}).WithRecorder(rec)

	resp, err := svc.Search(context.Background(), mustRequest(t, "AI machine learning", request.Filter{}, 10))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if resp.Method != mode.ViewHybrid || resp.Query != "AI machine learning" {
		t.Errorf("unexpected response header: %s %q", resp.Method, resp.Query)
	}
	if resp.Total() != 2 {
		t.Fatalf("expected 2 results, got %d", resp.Total())
	}
	first, second := resp.Results[0], resp.Results[1]
	if first.Signal.ID != s1 || first.Method != mode.Hybrid || math.Abs(first.Score-0.8) > eps {
		t.Errorf("first = %s %s %v, want S1 hybrid 0.8", first.Signal.ID, first.Method, first.Score)
	}
	if second.Signal.ID != s2 || second.Method != mode.Vector || math.Abs(second.Score-0.4) > eps {
		t.Errorf("second = %s %s %v, want S2 vector 0.4", second.Signal.ID, second.Method, second.Score)
	}
	if first.Breakdown.BM25 != 1 || first.Breakdown.Vector != 1 || first.Breakdown.Final != first.Score {
		t.Errorf("unexpected breakdown %+v", first.Breakdown)
	}

	if retr.ks[0] != 20 {
		t.Errorf("expected per-method limit 20, got %d", retr.ks[0])
	}
	if len(rec.events) != 1 || rec.events[0].results != 2 || rec.events[0].view != mode.ViewHybrid {
		t.Errorf("unexpected recorded events %+v", rec.events)
	}
}

func TestSearch_ScopesFilterToWorkspace(t *testing.T) {
	retr := &mockRetriever{}
	svc := newTestService(t, retr, scenarioStore(), &mockEmbedder{}, nil, Config{})

	f := request.Filter{Sources: []string{"github", "rss"}}
	if _, err := svc.Search(context.Background(), mustRequest(t, "q", f, 5)); err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	must := retr.filters[0].Must()
	if len(must) != 2 {
		t.Fatalf("expected workspace and source conditions, got %d", len(must))
	}
	if must[0].Key() != "workspace_id" || must[0].Values()[0] != testWorkspace.String() {
		t.Errorf("first condition must scope the workspace, got %s=%v", must[0].Key(), must[0].Values())
	}
	if must[1].Key() != "source" || len(must[1].Values()) != 2 {
		t.Errorf("unexpected source condition %s=%v", must[1].Key(), must[1].Values())
	}
}

func TestSearch_VectorFailureDegradesToLexical(t *testing.T) {
	before := testutil.ToFloat64(metrics.SearchDegradationsTotal.WithLabelValues(domain.StageVector))

	retr := &mockRetriever{lexical: lexicalHits(s1, 2.0, s2, 1.0)}
	svc := newTestService(t, retr, scenarioStore(), &mockEmbedder{err: domain.ErrEmbeddingProviderError}, nil, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", request.Filter{}, 10))
	if err != nil {
		t.Fatalf("degradation must not surface an error: %v", err)
	}
	if resp.Total() != 2 {
		t.Fatalf("expected lexical results, got %d", resp.Total())
	}
	for _, r := range resp.Results {
		if r.Method != mode.BM25 {
			t.Errorf("expected bm25 method, got %s", r.Method)
		}
	}
	if retr.vecCalls != 0 {
		t.Error("vector search must not run after the embedding failed")
	}
	if got := testutil.ToFloat64(metrics.SearchDegradationsTotal.WithLabelValues(domain.StageVector)); got != before+1 {
		t.Errorf("expected vector degradation counted, got %v -> %v", before, got)
	}
}

func TestSearch_TotalRetrievalFailureIsEmpty(t *testing.T) {
	before := testutil.ToFloat64(metrics.SearchTotalFailuresTotal)

	retr := &mockRetriever{
		lexical: func(context.Context, string) ([]result.Hit, error) { return nil, errors.New("redis down") },
		vector:  func(context.Context) ([]result.Hit, error) { return nil, errors.New("redis down") },
	}
	signals := scenarioStore()
	svc := newTestService(t, retr, signals, &mockEmbedder{}, nil, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", request.Filter{}, 10))
	if err != nil {
		t.Fatalf("total failure must not surface an error: %v", err)
	}
	if resp.Results == nil || resp.Total() != 0 {
		t.Fatalf("expected empty non-nil results, got %v", resp.Results)
	}
	if signals.calls != 0 {
		t.Error("document store must not be queried without candidates")
	}
	if got := testutil.ToFloat64(metrics.SearchTotalFailuresTotal); got != before+1 {
		t.Errorf("expected total failure counted, got %v -> %v", before, got)
	}
}

func TestSearch_RetrievalTimeout(t *testing.T) {
	retr := &mockRetriever{
		lexical: func(ctx context.Context, _ string) ([]result.Hit, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		vector: hits(s2, 0.9),
	}
	svc := newTestService(t, retr, scenarioStore(), &mockEmbedder{}, nil, Config{RetrievalTimeout: 20 * time.Millisecond})

	start := time.Now()
	resp, err := svc.Search(context.Background(), mustRequest(t, "q", request.Filter{}, 10))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("retrieval timeout not enforced, took %s", elapsed)
	}
	if resp.Total() != 1 || resp.Results[0].Method != mode.Vector {
		t.Fatalf("expected vector-only survivor, got %+v", resp.Results)
	}
}

func TestSearch_RerankReorders(t *testing.T) {
	retr := &mockRetriever{
		lexical: lexicalHits(s1, 1.0),
		vector:  hits(s1, 0.9, s2, 0.9),
	}
	rr := &mockReranker{scores: func(texts []string) []float64 {
		out := make([]float64, len(texts))
		for i, txt := range texts {
			if txt == "Neural network tooling content about Neural network tooling" {
				out[i] = 1
			}
		}
		return out
	}}
	svc := newTestService(t, retr, scenarioStore(), &mockEmbedder{}, rr, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", request.Filter{}, 10))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	// S1: 0.8*0.7 = 0.56, S2: 0.4*0.7 + 0.3 = 0.58
	if resp.Results[0].Signal.ID != s2 {
		t.Fatalf("expected reranked S2 first, got %s", resp.Results[0].Signal.ID)
	}
	if math.Abs(resp.Results[0].Score-0.58) > eps || math.Abs(resp.Results[1].Score-0.56) > eps {
		t.Errorf("unexpected final scores %v, %v", resp.Results[0].Score, resp.Results[1].Score)
	}
	if resp.Results[0].Breakdown.Rerank != 1 || resp.Results[0].Breakdown.Combined != 0.4 {
		t.Errorf("unexpected breakdown %+v", resp.Results[0].Breakdown)
	}
	for i := 1; i < resp.Total(); i++ {
		if resp.Results[i].Score > resp.Results[i-1].Score {
			t.Fatal("final scores must be non-increasing")
		}
	}
}

func TestSearch_RerankFailurePassesFusionOrder(t *testing.T) {
	before := testutil.ToFloat64(metrics.RerankTotal.WithLabelValues("failed"))

	retr := &mockRetriever{lexical: lexicalHits(s1, 3.0, s2, 2.0, s3, 1.0)}
	rr := &mockReranker{err: domain.ErrRerankUnavailable}
	svc := newTestService(t, retr, scenarioStore(), &mockEmbedder{}, rr, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", request.Filter{}, 2))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if resp.Total() != 2 {
		t.Fatalf("expected truncation to limit 2, got %d", resp.Total())
	}
	if resp.Results[0].Signal.ID != s1 || resp.Results[1].Signal.ID != s2 {
		t.Error("expected fusion order to pass through")
	}
	for _, r := range resp.Results {
		if r.Breakdown.Final != r.Breakdown.Combined {
			t.Errorf("final must equal combined on rerank failure: %+v", r.Breakdown)
		}
	}
	if got := testutil.ToFloat64(metrics.RerankTotal.WithLabelValues("failed")); got != before+1 {
		t.Errorf("expected rerank failure counted, got %v -> %v", before, got)
	}
}

func TestSearch_RerankLoadsAfterFailedWarm(t *testing.T) {
	inner := &mockReranker{scores: func(texts []string) []float64 {
		out := make([]float64, len(texts))
		for i := range out {
			out[i] = 0.5
		}
		return out
	}}
	var loads int
	gate := provider.NewGate("reranker", func(context.Context) (domain.Reranker, error) {
		loads++
		if loads == 1 {
			return nil, errors.New("rerank server unreachable")
		}
		return inner, nil
	})
	if err := gate.Warm(context.Background()); err == nil {
		t.Fatal("expected warm-up to fail")
	}

	retr := &mockRetriever{lexical: lexicalHits(s1, 1.0)}
	svc := newTestService(t, retr, scenarioStore(), &mockEmbedder{}, rerankuc.NewGuarded(gate, nil, nil), Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", request.Filter{}, 5))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if loads != 2 || !gate.IsReady() {
		t.Fatalf("expected the search to retry the load, loads=%d ready=%v", loads, gate.IsReady())
	}
	if inner.calls != 1 {
		t.Fatalf("expected one rerank call, got %d", inner.calls)
	}
	// 0.4*0.7 + 0.5*0.3
	if resp.Total() != 1 || resp.Results[0].Breakdown.Rerank != 0.5 || math.Abs(resp.Results[0].Score-0.43) > eps {
		t.Errorf("expected reranked result, got %+v", resp.Results)
	}

	if _, err := svc.Search(context.Background(), mustRequest(t, "q", request.Filter{}, 5)); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if loads != 2 || inner.calls != 2 {
		t.Errorf("expected the loaded reranker to be reused, loads=%d calls=%d", loads, inner.calls)
	}
}

func TestSearch_EnrichmentDropsMissingRecords(t *testing.T) {
	before := testutil.ToFloat64(metrics.EnrichmentDroppedTotal)

	retr := &mockRetriever{lexical: lexicalHits(s1, 2.0, s2, 1.0)}
	signals := signalStore(testSignal(s2, "only s2", "rss", testNow))
	svc := newTestService(t, retr, signals, &mockEmbedder{}, nil, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", request.Filter{}, 10))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if resp.Total() != 1 || resp.Results[0].Signal.ID != s2 {
		t.Fatalf("expected only S2, got %+v", resp.Results)
	}
	if signals.calls != 1 {
		t.Errorf("expected one document store fetch, got %d", signals.calls)
	}
	if got := testutil.ToFloat64(metrics.EnrichmentDroppedTotal); got != before+1 {
		t.Errorf("expected one drop counted, got %v -> %v", before, got)
	}
}

func TestSearch_DocumentStoreFailureIsEmpty(t *testing.T) {
	retr := &mockRetriever{lexical: lexicalHits(s1, 2.0)}
	signals := &mockSignals{err: errors.New("pg down")}
	svc := newTestService(t, retr, signals, &mockEmbedder{}, nil, Config{})

	resp, err := svc.Search(context.Background(), mustRequest(t, "q", request.Filter{}, 10))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if resp.Total() != 0 {
		t.Errorf("expected empty results, got %d", resp.Total())
	}
}
