package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/db"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	"github.com/kailas-cloud/signalsearch/internal/repository/index"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error)
}

// Repo implements the lexical and vector retrieval used by usecase/search.
type Repo struct {
	store  store
	layout index.Layout
}

// New creates a search repository.
func New(s store, layout index.Layout) *Repo {
	return &Repo{store: s, layout: layout}
}

var returnFields = []string{index.FieldSignalID}

// Lexical runs a fuzzy BM25 query over title and content, pre-filtered by filters.
// Title is boosted by the index schema.
func (r *Repo) Lexical(ctx context.Context, query string, filters filter.Expression, k int) ([]result.Hit, error) {
	q := &db.TextQuery{
		IndexName:    r.layout.IndexName,
		Query:        query,
		Fields:       []string{index.FieldTitle, index.FieldContent},
		Fuzzy:        true,
		Filters:      filters,
		TopK:         k,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w", err)
	}
	return r.parseHits(sr), nil
}

// Vector runs a KNN query over the embedding field. Scores are cosine similarities.
func (r *Repo) Vector(ctx context.Context, vector []float32, filters filter.Expression, k int) ([]result.Hit, error) {
	q := &db.KNNQuery{
		IndexName:    r.layout.IndexName,
		Field:        index.FieldEmbedding,
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return r.parseHits(sr), nil
}

// Count returns the number of indexed documents matching filters.
func (r *Repo) Count(ctx context.Context, filters filter.Expression) (int, error) {
	n, err := r.store.SearchCount(ctx, r.layout.IndexName, filters)
	if err != nil {
		return 0, fmt.Errorf("search count: %w", err)
	}
	return n, nil
}

// parseHits keeps store order. Entries whose id cannot be recovered are skipped.
func (r *Repo) parseHits(sr *db.SearchResult) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := r.layout.DocPrefix()
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		raw := e.Fields[index.FieldSignalID]
		if raw == "" {
			raw = strings.TrimPrefix(e.Key, prefix)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		hits = append(hits, result.Hit{SignalID: id, Score: e.Score})
	}
	return hits
}
