package signalsearch

import (
	"context"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/db"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/signalsearch/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/signalsearch/internal/usecase/indexer"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn     func(ctx context.Context, req *request.Request) (*result.Response, error)
	trendsFn     func(ctx context.Context, t *request.Trend) (*result.Response, error)
	whitespaceFn func(ctx context.Context, w *request.Whitespace) (*result.Response, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) (*result.Response, error) {
	return m.searchFn(ctx, req)
}

func (m *mockSearchUC) Trends(ctx context.Context, t *request.Trend) (*result.Response, error) {
	return m.trendsFn(ctx, t)
}

func (m *mockSearchUC) Whitespace(ctx context.Context, w *request.Whitespace) (*result.Response, error) {
	return m.whitespaceFn(ctx, w)
}

// --- indexUseCase mock ---

type mockIndexUC struct {
	indexFn   func(ctx context.Context, ws, id uuid.UUID) error
	removeFn  func(ctx context.Context, id uuid.UUID) error
	countFn   func(ctx context.Context, ws uuid.UUID) (int, error)
	reindexFn func(ctx context.Context, ws uuid.UUID) (indexeruc.ReindexReport, error)
}

func (m *mockIndexUC) IndexByID(ctx context.Context, ws, id uuid.UUID) error {
	return m.indexFn(ctx, ws, id)
}

func (m *mockIndexUC) Remove(ctx context.Context, id uuid.UUID) error {
	return m.removeFn(ctx, id)
}

func (m *mockIndexUC) Count(ctx context.Context, ws uuid.UUID) (int, error) {
	return m.countFn(ctx, ws)
}

func (m *mockIndexUC) Reindex(ctx context.Context, ws uuid.UUID) (indexeruc.ReindexReport, error) {
	return m.reindexFn(ctx, ws)
}

// --- indexManager mock ---

type mockIndexMgr struct {
	created bool
	err     error
	dropped bool
	info    db.IndexInfo
	infoErr error
}

func (m *mockIndexMgr) Ensure(_ context.Context) (bool, error) { return m.created, m.err }

func (m *mockIndexMgr) Drop(_ context.Context) error {
	m.dropped = true
	return m.err
}

func (m *mockIndexMgr) Stats(_ context.Context) (db.IndexInfo, error) { return m.info, m.infoErr }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report    healthuc.Report
	readiness healthuc.Readiness
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

func (m *mockHealthUC) Ready(_ context.Context) healthuc.Readiness { return m.readiness }

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

func testClient(searchSvc searchUseCase, indexSvc indexUseCase) *Client {
	return &Client{
		searchSvc: searchSvc,
		indexSvc:  indexSvc,
		indexMgr:  &mockIndexMgr{},
		healthSvc: &mockHealthUC{},
	}
}
