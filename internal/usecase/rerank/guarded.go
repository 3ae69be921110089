package rerank

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
	"github.com/kailas-cloud/signalsearch/internal/resilience"
	"github.com/kailas-cloud/signalsearch/internal/usecase/provider"
)

// Guarded resolves a reranker through its init gate and calls it behind a rate limiter
// and a circuit breaker. Every refusal wraps domain.ErrRerankUnavailable.
type Guarded struct {
	gate    *provider.Gate[domain.Reranker]
	limiter *rate.Limiter
	breaker *resilience.Breaker[[]float64]
}

// NewGuarded creates a guarded reranker. A nil limiter or breaker disables that guard.
func NewGuarded(
	g *provider.Gate[domain.Reranker], limiter *rate.Limiter, breaker *resilience.Breaker[[]float64],
) *Guarded {
	return &Guarded{gate: g, limiter: limiter, breaker: breaker}
}

// NewLimiter returns a token bucket limiter, or nil when rps is not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// ScoreBatch implements domain.Reranker.
func (g *Guarded) ScoreBatch(ctx context.Context, query string, texts []string) (scores []float64, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RerankRequestDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	r, err := g.gate.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankUnavailable, err)
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrRerankUnavailable, err)
		}
	}

	call := func(ctx context.Context) ([]float64, error) {
		scores, err := r.ScoreBatch(ctx, query, texts)
		if err != nil {
			return nil, err
		}
		if len(scores) != len(texts) {
			return nil, fmt.Errorf("reranker returned %d scores for %d texts", len(scores), len(texts))
		}
		return scores, nil
	}

	if g.breaker != nil {
		scores, err = g.breaker.Execute(ctx, call)
	} else {
		scores, err = call(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankUnavailable, err)
	}
	return scores, nil
}

// HealthCheck reports gate readiness and breaker state, then the provider's own check.
func (g *Guarded) HealthCheck(ctx context.Context) error {
	if !g.gate.IsReady() {
		return fmt.Errorf("%s: %w", g.gate.Name(), domain.ErrProviderNotReady)
	}
	if g.breaker != nil && g.breaker.State() == "open" {
		return fmt.Errorf("%s: circuit open: %w", g.gate.Name(), domain.ErrRerankUnavailable)
	}
	r, err := g.gate.Get(ctx)
	if err != nil {
		return err
	}
	if hc, ok := r.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
