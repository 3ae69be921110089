// Package embedding holds the embedder decorators shared by search and indexing.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/logger"
)

// Observed rejects blank input and logs every provider call on the request logger.
// Request, latency and token metrics live in the transport.
type Observed struct {
	next   domain.Embedder
	fields []zap.Field
	logger *zap.Logger
}

// Observe wraps next; provider and model tag every log line.
func Observe(next domain.Embedder, provider, model string, l *zap.Logger) *Observed {
	if l == nil {
		l = zap.NewNop()
	}
	return &Observed{
		next:   next,
		fields: []zap.Field{zap.String("provider", provider), zap.String("model", model)},
		logger: l,
	}
}

// Embed implements domain.Embedder.
func (o *Observed) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, domain.InvalidRequestf("cannot embed empty text")
	}

	start := time.Now()
	res, err := o.next.Embed(ctx, text)
	if err == nil && len(res.Embedding) == 0 {
		err = fmt.Errorf("empty vector: %w", domain.ErrEmbeddingProviderError)
	}

	l := logger.FromContextOr(ctx, o.logger).With(o.fields...)
	if err != nil {
		l.Error("embedding failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	if ce := l.Check(zapcore.DebugLevel, "embedding done"); ce != nil {
		ce.Write(
			zap.Duration("duration", time.Since(start)),
			zap.Int("dimensions", len(res.Embedding)),
			zap.Int("total_tokens", res.TotalTokens),
		)
	}
	return res, nil
}
