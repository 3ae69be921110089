// Package signal holds the market-signal record and its index projection.
package signal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Known signal sources, used for facet counts.
var Sources = []string{"product_hunt", "github", "rss", "crunchbase", "google_trends"}

// Known industry tags, used for facet counts.
var Industries = []string{
	"software", "ai_ml", "fintech", "healthcare", "ecommerce",
	"gaming", "education", "productivity", "security", "iot",
}

// Technologies is the static technology facet vocabulary.
var Technologies = []string{"python", "javascript", "react", "nodejs", "aws", "docker", "kubernetes"}

// Entities are the tags attached by the normalization pipeline.
type Entities struct {
	Industries         []string `json:"industries"`
	Technologies       []string `json:"technologies"`
	Companies          []string `json:"companies"`
	MonetizationModels []string `json:"monetization_models"`
}

// Signal is a market signal owned by a workspace. The search core never mutates it.
type Signal struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Title       string
	Content     string
	Source      string
	URL         string
	Entities    Entities
	Metadata    map[string]any
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// Text is the string embedded for the vector index and scored by the reranker.
func (s *Signal) Text() string {
	return strings.TrimSpace(s.Title + " " + s.Content)
}

// Validate checks the fields the indexer depends on.
func (s *Signal) Validate() error {
	if s.ID == uuid.Nil {
		return fmt.Errorf("signal id is required")
	}
	if s.WorkspaceID == uuid.Nil {
		return fmt.Errorf("workspace id is required")
	}
	if s.Text() == "" {
		return fmt.Errorf("signal %s has no title or content", s.ID)
	}
	if s.CreatedAt.IsZero() {
		return fmt.Errorf("signal %s has no created_at", s.ID)
	}
	return nil
}

// IndexedDocument is the projection of a Signal stored in the lexical/vector index.
type IndexedDocument struct {
	SignalID    uuid.UUID
	WorkspaceID uuid.UUID
	Title       string
	Content     string
	Source      string
	URL         string
	Entities    Entities
	CreatedAt   time.Time
	PublishedAt *time.Time
	Embedding   []float32
}

// NewIndexedDocument projects s with its embedding.
func NewIndexedDocument(s *Signal, embedding []float32) (IndexedDocument, error) {
	if len(embedding) == 0 {
		return IndexedDocument{}, fmt.Errorf("embedding is required")
	}
	return IndexedDocument{
		SignalID:    s.ID,
		WorkspaceID: s.WorkspaceID,
		Title:       s.Title,
		Content:     s.Content,
		Source:      s.Source,
		URL:         s.URL,
		Entities:    s.Entities,
		CreatedAt:   s.CreatedAt,
		PublishedAt: s.PublishedAt,
		Embedding:   embedding,
	}, nil
}
