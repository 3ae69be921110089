package search

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
)

// Retriever runs the two retrieval methods against the index.
type Retriever interface {
	Lexical(ctx context.Context, query string, filters filter.Expression, k int) ([]result.Hit, error)
	Vector(ctx context.Context, vector []float32, filters filter.Expression, k int) ([]result.Hit, error)
	Count(ctx context.Context, filters filter.Expression) (int, error)
}

// SignalStore hydrates candidates from the authoritative record store.
type SignalStore interface {
	GetByIDs(ctx context.Context, workspaceID uuid.UUID, ids []uuid.UUID) ([]signal.Signal, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Recorder receives one event per completed search. It must not block the caller for long.
type Recorder interface {
	RecordSearch(ctx context.Context, workspaceID uuid.UUID, query string, view mode.View, results int, took time.Duration)
}
