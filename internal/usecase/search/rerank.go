package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	"github.com/kailas-cloud/signalsearch/internal/logger"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
)

// Fixed blend of the fused score and the reranker score.
const (
	combinedBlend = 0.7
	rerankBlend   = 0.3
)

// rerank re-scores candidates with one batched provider call and truncates to limit.
// texts[i] belongs to cands[i]. Without a provider, or when loading or the call fails,
// the fused order passes through unchanged. A provider that failed to load is retried
// on the next search.
func (s *Service) rerank(
	ctx context.Context, query string, cands []result.Candidate, texts []string, limit int,
) []result.Candidate {
	truncate := func(cs []result.Candidate) []result.Candidate {
		if len(cs) > limit {
			return cs[:limit]
		}
		return cs
	}

	if len(cands) == 0 {
		return cands
	}
	if s.reranker == nil {
		metrics.RerankTotal.WithLabelValues("skipped").Inc()
		return truncate(cands)
	}

	scores, err := s.reranker.ScoreBatch(ctx, query, texts)
	if err == nil && len(scores) != len(cands) {
		err = domain.ErrRerankUnavailable
	}
	if err != nil {
		metrics.RerankTotal.WithLabelValues("failed").Inc()
		metrics.SearchDegradationsTotal.WithLabelValues(domain.StageRerank).Inc()
		logger.FromContextOr(ctx, s.logger).Warn("Rerank degraded",
			zap.String("stage", domain.StageRerank),
			zap.Int("candidates", len(cands)),
			zap.Error(err),
		)
		for i := range cands {
			cands[i].Final = cands[i].Combined
		}
		return truncate(cands)
	}

	for i := range cands {
		score := scores[i]
		cands[i].Rerank = &score
		cands[i].Final = cands[i].Combined*combinedBlend + score*rerankBlend
	}
	sortCandidates(cands, func(c *result.Candidate) float64 { return c.Final }, s.deterministicTies)
	metrics.RerankTotal.WithLabelValues("applied").Inc()

	return truncate(cands)
}
