package domain

import (
	"context"
	"fmt"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Reranker scores (query, text) pairs, one score per text in input order.
type Reranker interface {
	ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, error)
}

// HealthChecker is implemented by providers that can probe their backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is a vector plus the tokens spent producing it. Cache hits report zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) (EmbeddingResult, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return f(ctx, text)
}

// WithInstruction prefixes every text with instruction before it reaches e,
// e.g. "query: " for asymmetric retrieval models. An empty instruction returns e.
func WithInstruction(e Embedder, instruction string) Embedder {
	if instruction == "" {
		return e
	}
	return EmbedderFunc(func(ctx context.Context, text string) (EmbeddingResult, error) {
		res, err := e.Embed(ctx, instruction+text)
		if err != nil {
			return EmbeddingResult{}, fmt.Errorf("embed with instruction: %w", err)
		}
		return res, nil
	})
}
