package indexer

import (
	"context"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
)

// DocumentStore writes IndexedDocuments to the search index.
type DocumentStore interface {
	Upsert(ctx context.Context, doc *signal.IndexedDocument) (created bool, err error)
	Delete(ctx context.Context, signalID uuid.UUID) error
	Count(ctx context.Context, workspaceID uuid.UUID) (int, error)
}

// SignalReader reads authoritative signal records.
type SignalReader interface {
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (signal.Signal, error)
	ListByWorkspace(ctx context.Context, workspaceID, after uuid.UUID, limit int) ([]signal.Signal, error)
}

// Embedder vectorizes signal text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
