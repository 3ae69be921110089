// Package search runs the hybrid retrieval and ranking pipeline and the views derived from it.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	"github.com/kailas-cloud/signalsearch/internal/logger"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
)

// Config tunes the pipeline.
type Config struct {
	// RetrievalTimeout bounds the concurrent lexical and vector calls. Zero disables it.
	RetrievalTimeout time.Duration
	// DeterministicTies orders equal scores by signal id instead of insertion order.
	DeterministicTies bool
	// WhitespaceWorkers sizes the pool that runs whitespace templates.
	WhitespaceWorkers int
}

// Service executes searches. It is safe for concurrent use.
type Service struct {
	retriever Retriever
	signals   SignalStore
	embed     Embedder
	reranker  domain.Reranker
	recorder  Recorder

	retrievalTimeout  time.Duration
	deterministicTies bool
	pool              *ants.Pool

	logger *zap.Logger
	now    func() time.Time
}

// New creates a search service. reranker may be nil. Call Release when done.
func New(
	retriever Retriever, signals SignalStore, embed Embedder, reranker domain.Reranker,
	cfg Config, l *zap.Logger,
) (*Service, error) {
	workers := cfg.WhitespaceWorkers
	if workers <= 0 {
		workers = len(whitespaceTemplates)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create whitespace pool: %w", err)
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		retriever:         retriever,
		signals:           signals,
		embed:             embed,
		reranker:          reranker,
		retrievalTimeout:  cfg.RetrievalTimeout,
		deterministicTies: cfg.DeterministicTies,
		pool:              pool,
		logger:            logger.Component(l, "search"),
		now:               time.Now,
	}, nil
}

// WithRecorder attaches a search analytics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// Release stops the whitespace pool.
func (s *Service) Release() {
	s.pool.Release()
}

// Search runs the hybrid pipeline. Retrieval, rerank and enrichment degradations are absorbed;
// only an invalid request returns an error.
func (s *Service) Search(ctx context.Context, req *request.Request) (*result.Response, error) {
	start := time.Now()

	results, err := s.pipeline(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.respond(ctx, req.WorkspaceID(), results, req.Query(), mode.ViewHybrid, start), nil
}

// pipeline is retrieve, fuse, hydrate, rerank and enrich for one request.
func (s *Service) pipeline(ctx context.Context, req *request.Request) ([]result.Result, error) {
	expr, err := req.Filter().Expression(req.WorkspaceID())
	if err != nil {
		return nil, err
	}

	r := s.retrieve(ctx, req, expr)
	if r.failed() {
		return nil, nil
	}

	cands := fuse(r.lexical, r.vector, req.Weights(), req.PerMethodLimit(), s.deterministicTies)
	if len(cands) == 0 {
		return nil, nil
	}

	signals, err := s.signals.GetByIDs(ctx, req.WorkspaceID(), candidateIDs(cands))
	if err != nil {
		metrics.SearchDegradationsTotal.WithLabelValues(domain.StageEnrich).Inc()
		logger.FromContextOr(ctx, s.logger).Warn("Enrichment failed",
			zap.String("stage", domain.StageEnrich),
			zap.String("workspace_id", req.WorkspaceID().String()),
			zap.Error(err),
		)
		return nil, nil
	}
	byID := indexSignals(signals)

	cands = s.rerank(ctx, req.Query(), cands, rerankTexts(cands, byID), req.Limit())
	return enrich(cands, byID), nil
}

func (s *Service) respond(
	ctx context.Context, workspaceID uuid.UUID, results []result.Result,
	query string, view mode.View, start time.Time,
) *result.Response {
	took := time.Since(start)
	metrics.SearchDuration.WithLabelValues(string(view)).Observe(took.Seconds())

	if results == nil {
		results = []result.Result{}
	}
	if s.recorder != nil {
		s.recorder.RecordSearch(ctx, workspaceID, query, view, len(results), took)
	}

	return &result.Response{
		Results:      results,
		Query:        query,
		SearchTimeMs: float64(took.Microseconds()) / 1000,
		Method:       view,
	}
}
