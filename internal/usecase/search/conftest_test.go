package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
)

// --- Mocks ---

type mockRetriever struct {
	mu       sync.Mutex
	queries  []string
	filters  []filter.Expression
	ks       []int
	lexical  func(ctx context.Context, query string) ([]result.Hit, error)
	vector   func(ctx context.Context) ([]result.Hit, error)
	countFn  func(expr filter.Expression) (int, error)
	vecCalls int
}

func (m *mockRetriever) Lexical(ctx context.Context, query string, expr filter.Expression, k int) ([]result.Hit, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.filters = append(m.filters, expr)
	m.ks = append(m.ks, k)
	m.mu.Unlock()
	if m.lexical == nil {
		return nil, nil
	}
	return m.lexical(ctx, query)
}

func (m *mockRetriever) Vector(ctx context.Context, _ []float32, _ filter.Expression, _ int) ([]result.Hit, error) {
	m.mu.Lock()
	m.vecCalls++
	m.mu.Unlock()
	if m.vector == nil {
		return nil, nil
	}
	return m.vector(ctx)
}

func (m *mockRetriever) Count(_ context.Context, expr filter.Expression) (int, error) {
	if m.countFn == nil {
		return 0, nil
	}
	return m.countFn(expr)
}

type mockSignals struct {
	byID  map[uuid.UUID]signal.Signal
	err   error
	calls int
}

func (m *mockSignals) GetByIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]signal.Signal, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []signal.Signal
	for _, id := range ids {
		if s, ok := m.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}, nil
}

type mockReranker struct {
	scores func(texts []string) []float64
	err    error
	calls  int
}

func (m *mockReranker) ScoreBatch(_ context.Context, _ string, texts []string) ([]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.scores(texts), nil
}

type recordedSearch struct {
	workspaceID uuid.UUID
	query       string
	view        mode.View
	results     int
}

type mockRecorder struct {
	mu     sync.Mutex
	events []recordedSearch
}

func (m *mockRecorder) RecordSearch(_ context.Context, ws uuid.UUID, q string, v mode.View, n int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedSearch{workspaceID: ws, query: q, view: v, results: n})
}

// --- Fixtures ---

var (
	testWorkspace = uuid.MustParse("6f1c7a52-4d1e-4b1a-9a0e-2f3c4d5e6f70")
	s1            = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	s2            = uuid.MustParse("00000000-0000-4000-8000-000000000002")
	s3            = uuid.MustParse("00000000-0000-4000-8000-000000000003")
	testNow       = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
)

func testSignal(id uuid.UUID, title, source string, createdAt time.Time) signal.Signal {
	return signal.Signal{
		ID:          id,
		WorkspaceID: testWorkspace,
		Title:       title,
		Content:     "content about " + title,
		Source:      source,
		CreatedAt:   createdAt,
	}
}

func signalStore(signals ...signal.Signal) *mockSignals {
	m := &mockSignals{byID: make(map[uuid.UUID]signal.Signal, len(signals))}
	for _, s := range signals {
		m.byID[s.ID] = s
	}
	return m
}

func hits(pairs ...any) func(context.Context) ([]result.Hit, error) {
	out := make([]result.Hit, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, result.Hit{SignalID: pairs[i].(uuid.UUID), Score: pairs[i+1].(float64)})
	}
	return func(context.Context) ([]result.Hit, error) { return out, nil }
}

func lexicalHits(pairs ...any) func(context.Context, string) ([]result.Hit, error) {
	h := hits(pairs...)
	return func(ctx context.Context, _ string) ([]result.Hit, error) { return h(ctx) }
}

func newTestService(
	t *testing.T, retr Retriever, signals SignalStore, emb Embedder, rr domain.Reranker, cfg Config,
) *Service {
	t.Helper()
	svc, err := New(retr, signals, emb, rr, cfg, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	svc.now = func() time.Time { return testNow }
	t.Cleanup(svc.Release)
	return svc
}
