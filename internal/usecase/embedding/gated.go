package embedding

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/usecase/provider"
)

// Gated resolves the embedder through its gate on every call, so consumers can be
// wired before the provider has loaded.
type Gated struct {
	gate *provider.Gate[domain.Embedder]
}

// NewGated creates a gate-backed embedder.
func NewGated(g *provider.Gate[domain.Embedder]) *Gated {
	return &Gated{gate: g}
}

// Embed implements domain.Embedder. Load failures wrap domain.ErrEmbeddingProviderError.
func (g *Gated) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	e, err := g.gate.Get(ctx)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", err, domain.ErrEmbeddingProviderError)
	}
	return e.Embed(ctx, text)
}

// HealthCheck reports not-ready until loaded, then probes the provider if it can.
func (g *Gated) HealthCheck(ctx context.Context) error {
	if !g.gate.IsReady() {
		return fmt.Errorf("%s: %w", g.gate.Name(), domain.ErrProviderNotReady)
	}
	e, err := g.gate.Get(ctx)
	if err != nil {
		return err
	}
	if hc, ok := e.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
