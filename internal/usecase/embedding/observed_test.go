package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/logger"
)

func TestObserved_Embed(t *testing.T) {
	boom := errors.New("provider down")
	tests := []struct {
		name    string
		text    string
		next    *fakeEmbedder
		wantErr error
		calls   int
	}{
		{"success", "hello", &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 5}}, nil, 1},
		{"blank text rejected", "   ", &fakeEmbedder{}, domain.ErrInvalidRequest, 0},
		{"provider error wrapped", "hello", &fakeEmbedder{err: boom}, boom, 1},
		{"empty vector", "hello", &fakeEmbedder{}, domain.ErrEmbeddingProviderError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Observe(tt.next, "test", "m", nil).Embed(context.Background(), tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil || res.TotalTokens != 5 {
				t.Fatalf("Embed() = %+v, %v", res, err)
			}
			if tt.next.calls != tt.calls {
				t.Errorf("provider calls = %d, want %d", tt.next.calls, tt.calls)
			}
		})
	}
}

func TestObserved_LogsOnRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))
	o := Observe(&fakeEmbedder{err: errors.New("provider down")}, "openai", "m1", zap.NewNop())

	_, _ = o.Embed(ctx, "hello")

	failed := logs.FilterMessage("embedding failed").All()
	if len(failed) != 1 {
		t.Fatalf("expected one failure on the request logger, got %d", len(failed))
	}
	if got := failed[0].ContextMap()["provider"]; got != "openai" {
		t.Errorf("provider field = %v", got)
	}
}
