package indexer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
)

// --- Mocks ---

type memDocs struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]signal.IndexedDocument
	writes    map[uuid.UUID]int
	upsertErr error
}

func newMemDocs() *memDocs {
	return &memDocs{docs: map[uuid.UUID]signal.IndexedDocument{}, writes: map[uuid.UUID]int{}}
}

func (m *memDocs) Upsert(_ context.Context, doc *signal.IndexedDocument) (bool, error) {
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.docs[doc.SignalID]
	m.docs[doc.SignalID] = *doc
	m.writes[doc.SignalID]++
	return !exists, nil
}

func (m *memDocs) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memDocs) Count(_ context.Context, ws uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.docs {
		if d.WorkspaceID == ws {
			n++
		}
	}
	return n, nil
}

type memSignals struct {
	signals []signal.Signal
	listErr error
	pages   int
}

func (m *memSignals) GetByID(_ context.Context, ws, id uuid.UUID) (signal.Signal, error) {
	for _, s := range m.signals {
		if s.WorkspaceID == ws && s.ID == id {
			return s, nil
		}
	}
	return signal.Signal{}, domain.ErrNotFound
}

func (m *memSignals) ListByWorkspace(_ context.Context, ws, after uuid.UUID, limit int) ([]signal.Signal, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.pages++
	sorted := append([]signal.Signal(nil), m.signals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.String() < sorted[j].ID.String() })

	var out []signal.Signal
	for _, s := range sorted {
		if s.WorkspaceID != ws || s.ID.String() <= after.String() {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type mockEmbedder struct {
	err      error
	failText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if m.failText != "" && strings.Contains(text, m.failText) {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}, nil
}

var testWorkspace = uuid.MustParse("6f1c7a52-4d1e-4b1a-9a0e-2f3c4d5e6f70")

func newSignal(title string) signal.Signal {
	return signal.Signal{
		ID:          uuid.New(),
		WorkspaceID: testWorkspace,
		Title:       title,
		Content:     "content of " + title,
		Source:      "github",
		CreatedAt:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newService(t *testing.T, docs DocumentStore, signals SignalReader, emb Embedder) *Service {
	t.Helper()
	svc, err := New(docs, signals, emb, 4, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(svc.Release)
	return svc
}

// --- Tests ---

func TestIndex_IdempotentReindex(t *testing.T) {
	docs := newMemDocs()
	svc := newService(t, docs, &memSignals{}, &mockEmbedder{})
	sig := newSignal("AI payments")

	for range 2 {
		if err := svc.Index(context.Background(), &sig); err != nil {
			t.Fatalf("Index() error: %v", err)
		}
	}

	n, err := svc.Count(context.Background(), testWorkspace)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 indexed document, got %d", n)
	}
	if docs.writes[sig.ID] != 2 {
		t.Errorf("expected 2 writes to the same key, got %d", docs.writes[sig.ID])
	}
	if len(docs.docs[sig.ID].Embedding) != 3 {
		t.Error("expected embedding stored with the document")
	}
}

func TestIndex_EmbedFailure(t *testing.T) {
	svc := newService(t, newMemDocs(), &memSignals{}, &mockEmbedder{err: domain.ErrEmbeddingProviderError})
	sig := newSignal("x")

	err := svc.Index(context.Background(), &sig)
	var ie *domain.IndexError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IndexError, got %v", err)
	}
	if ie.Op != domain.IndexOpEmbed {
		t.Errorf("expected op %q, got %q", domain.IndexOpEmbed, ie.Op)
	}
	if !errors.Is(err, domain.ErrIndexing) || !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected error to match ErrIndexing and its cause: %v", err)
	}
}

func TestIndex_UpsertFailure(t *testing.T) {
	docs := newMemDocs()
	docs.upsertErr = errors.New("redis down")
	svc := newService(t, docs, &memSignals{}, &mockEmbedder{})
	sig := newSignal("x")

	err := svc.Index(context.Background(), &sig)
	var ie *domain.IndexError
	if !errors.As(err, &ie) || ie.Op != domain.IndexOpUpsert {
		t.Fatalf("expected upsert IndexError, got %v", err)
	}
}

func TestIndex_InvalidSignal(t *testing.T) {
	svc := newService(t, newMemDocs(), &memSignals{}, &mockEmbedder{})
	sig := newSignal("")
	sig.Content = ""

	err := svc.Index(context.Background(), &sig)
	if !errors.Is(err, domain.ErrInvalidRequest) || !errors.Is(err, domain.ErrIndexing) {
		t.Fatalf("expected invalid request IndexError, got %v", err)
	}
}

func TestIndexByID_NotFound(t *testing.T) {
	svc := newService(t, newMemDocs(), &memSignals{}, &mockEmbedder{})

	err := svc.IndexByID(context.Background(), testWorkspace, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	docs := newMemDocs()
	sig := newSignal("x")
	svc := newService(t, docs, &memSignals{signals: []signal.Signal{sig}}, &mockEmbedder{})

	if err := svc.IndexByID(context.Background(), testWorkspace, sig.ID); err != nil {
		t.Fatalf("IndexByID() error: %v", err)
	}
	if err := svc.Remove(context.Background(), sig.ID); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if err := svc.Remove(context.Background(), sig.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second remove, got %v", err)
	}
}

func TestReindex_CountsAndPages(t *testing.T) {
	var signals []signal.Signal
	for i := range 7 {
		title := "signal"
		if i == 3 {
			title = "broken"
		}
		signals = append(signals, newSignal(title))
	}
	other := newSignal("other workspace")
	other.WorkspaceID = uuid.New()
	signals = append(signals, other)

	store := &memSignals{signals: signals}
	docs := newMemDocs()
	svc := newService(t, docs, store, &mockEmbedder{failText: "broken"}).WithPageSize(3)

	report, err := svc.Reindex(context.Background(), testWorkspace)
	if err != nil {
		t.Fatalf("Reindex() error: %v", err)
	}
	if report.Indexed != 6 || report.Failed != 1 {
		t.Errorf("expected 6 indexed / 1 failed, got %+v", report)
	}
	if !errors.Is(report.Errors, domain.ErrIndexing) {
		t.Errorf("expected joined IndexError, got %v", report.Errors)
	}
	if store.pages != 3 {
		t.Errorf("expected 3 pages for 7 signals at size 3, got %d", store.pages)
	}
	if n, _ := svc.Count(context.Background(), testWorkspace); n != 6 {
		t.Errorf("expected 6 documents, got %d", n)
	}
}

func TestReindex_ListFailure(t *testing.T) {
	svc := newService(t, newMemDocs(), &memSignals{listErr: errors.New("pg down")}, &mockEmbedder{})

	if _, err := svc.Reindex(context.Background(), testWorkspace); err == nil {
		t.Fatal("expected list error")
	}
}
