package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	"github.com/kailas-cloud/signalsearch/internal/logger"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
)

// retrieval holds both methods' hits and what went wrong with each.
type retrieval struct {
	lexical    []result.Hit
	vector     []result.Hit
	lexicalErr *domain.StageError
	vectorErr  *domain.StageError
}

func (r *retrieval) failed() bool {
	return r.lexicalErr != nil && r.vectorErr != nil
}

// retrieve runs lexical and vector retrieval concurrently under the retrieval timeout.
// A failing branch never cancels its sibling.
func (s *Service) retrieve(ctx context.Context, req *request.Request, expr filter.Expression) retrieval {
	if s.retrievalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.retrievalTimeout)
		defer cancel()
	}

	var out retrieval
	k := req.PerMethodLimit()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hits, err := s.retriever.Lexical(gctx, req.Query(), expr, k)
		if err != nil {
			out.lexicalErr = &domain.StageError{Stage: domain.StageLexical, Err: err}
			return nil
		}
		out.lexical = hits
		return nil
	})

	g.Go(func() error {
		emb, err := s.embed.Embed(gctx, req.Query())
		if err != nil {
			out.vectorErr = &domain.StageError{Stage: domain.StageVector, Err: fmt.Errorf("embed query: %w", err)}
			return nil
		}
		hits, err := s.retriever.Vector(gctx, emb.Embedding, expr, k)
		if err != nil {
			out.vectorErr = &domain.StageError{Stage: domain.StageVector, Err: err}
			return nil
		}
		out.vector = hits
		return nil
	})

	_ = g.Wait()

	s.reportRetrieval(ctx, req, &out)
	return out
}

func (s *Service) reportRetrieval(ctx context.Context, req *request.Request, r *retrieval) {
	log := logger.FromContextOr(ctx, s.logger)
	ws := zap.String("workspace_id", req.WorkspaceID().String())

	if r.failed() {
		metrics.SearchTotalFailuresTotal.Inc()
		log.Error("Total retrieval failure",
			ws,
			zap.NamedError("lexical_error", r.lexicalErr),
			zap.NamedError("vector_error", r.vectorErr),
		)
		return
	}

	for _, se := range []*domain.StageError{r.lexicalErr, r.vectorErr} {
		if se == nil {
			continue
		}
		metrics.SearchDegradationsTotal.WithLabelValues(se.Stage).Inc()
		log.Warn("Retrieval degraded", zap.String("stage", se.Stage), ws, zap.Error(se.Err))
	}
}
