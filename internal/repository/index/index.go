// Package index owns the FT schema of the signal index and its key layout.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/db"
)

// Indexed-document hash fields.
const (
	FieldSignalID           = "signal_id"
	FieldWorkspaceID        = "workspace_id"
	FieldTitle              = "title"
	FieldContent            = "content"
	FieldSource             = "source"
	FieldURL                = "url"
	FieldIndustries         = "industries"
	FieldTechnologies       = "technologies"
	FieldCompanies          = "companies"
	FieldMonetizationModels = "monetization_models"
	FieldCreatedAt          = "created_at"
	FieldPublishedAt        = "published_at"
	FieldEmbedding          = "embedding"
)

// TagSeparator joins multi-valued entity tags inside one hash field.
const TagSeparator = ","

// TitleWeight is the BM25 boost of title over content.
const TitleWeight = 2.0

// Language is the stemming language of title and content.
const Language = "english"

// HNSW index parameters.
type HNSW struct {
	M           int
	EFConstruct int
}

// Layout names the index and the keys of its documents.
type Layout struct {
	Prefix    string
	IndexName string
}

// NewLayout derives the layout for a key prefix. An empty indexName becomes "<prefix>signals:idx".
func NewLayout(prefix, indexName string) Layout {
	if indexName == "" {
		indexName = prefix + "signals:idx"
	}
	return Layout{Prefix: prefix, IndexName: indexName}
}

// DocPrefix is the hash key prefix covered by the index.
func (l Layout) DocPrefix() string {
	return l.Prefix + "signal:"
}

// Key returns the hash key of one indexed signal.
func (l Layout) Key(signalID uuid.UUID) string {
	return l.DocPrefix() + signalID.String()
}

// Definition builds the FT.CREATE definition for dim-dimensional embeddings.
func (l Layout) Definition(dim int, hnsw HNSW) (*db.IndexDefinition, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimensions must be positive, got %d", dim)
	}
	def, err := db.NewIndex(l.IndexName).
		Prefix(l.DocPrefix()).
		Language(Language).
		Tag(FieldSignalID).
		Tag(FieldWorkspaceID).
		WeightedText(FieldTitle, TitleWeight).
		Text(FieldContent).
		Tag(FieldSource).
		Tag(FieldURL).
		TagList(FieldIndustries, TagSeparator).
		TagList(FieldTechnologies, TagSeparator).
		TagList(FieldCompanies, TagSeparator).
		TagList(FieldMonetizationModels, TagSeparator).
		SortableNumeric(FieldCreatedAt).
		Numeric(FieldPublishedAt).
		VectorHNSW(FieldEmbedding, dim, hnsw.M, hnsw.EFConstruct).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build index definition: %w", err)
	}
	return def, nil
}

type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexInfo(ctx context.Context, name string) (db.IndexInfo, error)
}

// Manager creates and drops the signal index.
type Manager struct {
	store  store
	layout Layout
	dim    int
	hnsw   HNSW
}

// NewManager creates an index manager.
func NewManager(s store, layout Layout, dim int, hnsw HNSW) *Manager {
	return &Manager{store: s, layout: layout, dim: dim, hnsw: hnsw}
}

// Ensure creates the index if it does not exist. It reports whether it was created.
func (m *Manager) Ensure(ctx context.Context) (bool, error) {
	_, err := m.store.IndexInfo(ctx, m.layout.IndexName)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, db.ErrIndexNotFound):
		return false, fmt.Errorf("check index %s: %w", m.layout.IndexName, err)
	}

	def, err := m.layout.Definition(m.dim, m.hnsw)
	if err != nil {
		return false, err
	}
	if err := m.store.CreateIndex(ctx, def); err != nil {
		// another replica won the race
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", m.layout.IndexName, err)
	}
	return true, nil
}

// Stats reports the document count and backfill progress of the index.
func (m *Manager) Stats(ctx context.Context) (db.IndexInfo, error) {
	info, err := m.store.IndexInfo(ctx, m.layout.IndexName)
	if err != nil {
		return db.IndexInfo{}, fmt.Errorf("index info %s: %w", m.layout.IndexName, err)
	}
	return info, nil
}

// Drop removes the index. Documents are kept. A missing index is not an error.
func (m *Manager) Drop(ctx context.Context) error {
	if err := m.store.DropIndex(ctx, m.layout.IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", m.layout.IndexName, err)
	}
	return nil
}
