// Package openai embeds text through any OpenAI-compatible /embeddings endpoint.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions is requested from the API and enforced on every response when positive.
	Dimensions int
	User       string
	// Provider labels metrics, e.g. "openai" or "ollama".
	Provider string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Embedder embeds one text per request.
type Embedder struct {
	client *openai.Client
	cfg    Config
	logger *zap.Logger
}

// NewEmbedder builds a client for cfg.BaseURL, or the public API when empty.
func NewEmbedder(cfg *Config) *Embedder {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Embedder{client: openai.NewClientWithConfig(cc), cfg: *cfg, logger: l}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(e.cfg.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.cfg.User,
		Dimensions:     max(e.cfg.Dimensions, 0),
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		e.failed("api_error")
		e.logger.Debug("embedding request failed", zap.Duration("duration", elapsed), zap.Error(err))
		return domain.EmbeddingResult{}, classify(err)
	}

	if len(resp.Data) == 0 {
		e.failed("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}
	vec := resp.Data[0].Embedding
	if want := e.cfg.Dimensions; want > 0 && len(vec) != want {
		e.failed("dimension_mismatch")
		return domain.EmbeddingResult{}, fmt.Errorf("embedding has %d dimensions, want %d: %w",
			len(vec), want, domain.ErrEmbeddingProviderError)
	}

	e.succeeded(elapsed, resp.Usage)
	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Embedder) labels(extra string) []string {
	return []string{e.cfg.Provider, e.cfg.Model, extra}
}

func (e *Embedder) failed(reason string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.labels("error")...).Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.labels(reason)...).Inc()
}

func (e *Embedder) succeeded(elapsed time.Duration, usage openai.Usage) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.labels("success")...).Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.cfg.Provider, e.cfg.Model).Observe(elapsed.Seconds())
	if usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.labels("prompt")...).Add(float64(usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.labels("total")...).Add(float64(usage.TotalTokens))
	}
}
