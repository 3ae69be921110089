package embedding

import (
	"context"

	"github.com/kailas-cloud/signalsearch/internal/domain"
)

type fakeEmbedder struct {
	result    domain.EmbeddingResult
	err       error
	healthErr error
	calls     int
}

func (f *fakeEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeEmbedder) HealthCheck(context.Context) error { return f.healthErr }
