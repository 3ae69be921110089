package document

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/db"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
	"github.com/kailas-cloud/signalsearch/internal/repository/index"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hreplaceFn    func(ctx context.Context, key string, fields map[string]string, drop []string) (bool, error)
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	delFn         func(ctx context.Context, key string) (bool, error)
	searchCountFn func(ctx context.Context, index string, filters filter.Expression) (int, error)
}

func (m *mockStore) HReplace(ctx context.Context, key string, fields map[string]string, drop []string) (bool, error) {
	if m.hreplaceFn != nil {
		return m.hreplaceFn(ctx, key, fields, drop)
	}
	return true, nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) (bool, error) {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) SearchCount(ctx context.Context, idx string, filters filter.Expression) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, idx, filters)
	}
	return 0, nil
}

var (
	testSignalID    = uuid.MustParse("0b0e4a52-3f43-4b51-9f0a-0c1d2e3f4a01")
	testWorkspaceID = uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
)

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, index.NewLayout("ss:", "")), ms
}

func testDoc() *signal.IndexedDocument {
	return &signal.IndexedDocument{
		SignalID:    testSignalID,
		WorkspaceID: testWorkspaceID,
		Title:       "AI invoicing",
		Content:     "Small firms struggle with invoices",
		Source:      "github",
		URL:         "https://github.com/acme/invoicer",
		Entities: signal.Entities{
			Industries:   []string{"fintech", "ai_ml"},
			Technologies: []string{"python"},
		},
		CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
		Embedding: []float32{0.5, -0.25, 1},
	}
}
