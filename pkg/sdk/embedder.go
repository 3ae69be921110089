package signalsearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/signalsearch/internal/domain"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Reranker scores each text against the query. Higher is more relevant.
type Reranker interface {
	ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, error)
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", err, domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder fails every call. Searches fall back to BM25; indexing fails.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("%w: %w",
		errors.New("signalsearch: embedder not configured (use WithEmbedder or WithOpenAI)"),
		domain.ErrEmbeddingProviderError,
	)
}
