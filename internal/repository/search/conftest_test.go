package search

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/db"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/signalsearch/internal/repository/index"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchTextFn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index string, filters filter.Expression) (int, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, idx string, filters filter.Expression) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, idx, filters)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, index.NewLayout("ss:", "")), ms
}

var (
	sig1 = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	sig2 = uuid.MustParse("22222222-2222-4222-8222-222222222222")
)

func mustMatch(t *testing.T, key, value string) filter.Condition {
	t.Helper()
	c, err := filter.NewMatch(key, value)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	return c
}

func mustAll(t *testing.T, conds ...filter.Condition) filter.Expression {
	t.Helper()
	e, err := filter.All(conds...)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	return e
}
