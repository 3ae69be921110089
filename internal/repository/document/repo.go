package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/db"
	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
	"github.com/kailas-cloud/signalsearch/internal/repository/index"
)

// store is the consumer interface for indexed documents (ISP).
type store interface {
	HReplace(ctx context.Context, key string, fields map[string]string, drop []string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) (bool, error)
	SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error)
}

// Repo stores IndexedDocuments as hashes covered by the signal index.
type Repo struct {
	store  store
	layout index.Layout
}

// New creates a document repository.
func New(s store, layout index.Layout) *Repo {
	return &Repo{store: s, layout: layout}
}

// Upsert writes doc under its signal key. Optional fields that are absent are removed
// so a re-index leaves no stale values. Returns true if the key was new.
func (r *Repo) Upsert(ctx context.Context, doc *signal.IndexedDocument) (bool, error) {
	key := r.layout.Key(doc.SignalID)
	fields, absent := buildHashFields(doc)

	created, err := r.store.HReplace(ctx, key, fields, absent)
	if err != nil {
		return false, fmt.Errorf("write %s: %w", key, err)
	}
	return created, nil
}

// Get returns the indexed document for a signal.
func (r *Repo) Get(ctx context.Context, signalID uuid.UUID) (signal.IndexedDocument, error) {
	key := r.layout.Key(signalID)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return signal.IndexedDocument{}, domain.ErrNotFound
		}
		return signal.IndexedDocument{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return parseHashFields(m)
}

// Delete removes the indexed document. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, signalID uuid.UUID) error {
	key := r.layout.Key(signalID)
	existed, err := r.store.Del(ctx, key)
	if err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if !existed {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the number of indexed documents in a workspace.
func (r *Repo) Count(ctx context.Context, workspaceID uuid.UUID) (int, error) {
	ws, err := filter.NewMatch(index.FieldWorkspaceID, workspaceID.String())
	if err != nil {
		return 0, err
	}
	expr, err := filter.All(ws)
	if err != nil {
		return 0, err
	}
	n, err := r.store.SearchCount(ctx, r.layout.IndexName, expr)
	if err != nil {
		return 0, fmt.Errorf("count workspace %s: %w", workspaceID, err)
	}
	return n, nil
}
