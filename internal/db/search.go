package db

import "github.com/kailas-cloud/signalsearch/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Field        string // vector field name, defaults to "embedding"
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 full-text search.
type TextQuery struct {
	IndexName string
	Query     string
	// Fields restricts matching to the listed TEXT fields. Empty means all.
	Fields []string
	// Fuzzy expands each term into a Levenshtein match sized by term length.
	Fuzzy        bool
	Filters      filter.Expression
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
