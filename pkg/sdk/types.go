package signalsearch

import (
	"time"

	"github.com/google/uuid"
)

// Filter narrows a search. Empty fields do not filter.
type Filter struct {
	Sources    []string
	Industries []string
	// From and To bound created_at, inclusive.
	From *time.Time
	To   *time.Time
}

// Weights override the fusion coefficients. Nil fields keep the defaults {0.4, 0.4, 0.2}.
type Weights struct {
	BM25   *float64
	Vector *float64
	Rerank *float64
}

// SearchRequest is a hybrid search. Zero Limit selects 20.
type SearchRequest struct {
	WorkspaceID uuid.UUID
	Query       string
	Filter      Filter
	Limit       int
	Weights     *Weights
}

// TrendRequest searches a recent window. Zero values select 30 days and 10 results.
type TrendRequest struct {
	WorkspaceID uuid.UUID
	Query       string
	WindowDays  int
	Limit       int
}

// WhitespaceRequest looks for unmet needs in an industry. Zero Limit selects 20.
type WhitespaceRequest struct {
	WorkspaceID uuid.UUID
	Industry    string
	Limit       int
}

// Signal is a hydrated signal record.
type Signal struct {
	ID                 uuid.UUID
	WorkspaceID        uuid.UUID
	Title              string
	Content            string
	Source             string
	URL                string
	Industries         []string
	Technologies       []string
	Companies          []string
	MonetizationModels []string
	Metadata           map[string]any
	CreatedAt          time.Time
	PublishedAt        *time.Time
}

// ScoreBreakdown reports every stage's contribution to a result's rank.
type ScoreBreakdown struct {
	BM25     float64 `json:"bm25"`
	Vector   float64 `json:"vector"`
	Rerank   float64 `json:"rerank"`
	Combined float64 `json:"combined"`
	Final    float64 `json:"final"`
}

// TrendIndicators annotate trend results.
type TrendIndicators struct {
	RecencyScore    float64 `json:"recency_score"`
	SourceDiversity int     `json:"source_diversity"`
	EntityOverlap   int     `json:"entity_overlap"`
}

// WhitespaceIndicators annotate whitespace results.
type WhitespaceIndicators struct {
	ProblemKeywords    []string `json:"problem_keywords"`
	SolutionGapScore   float64  `json:"solution_gap_score"`
	MarketNeedStrength float64  `json:"market_need_strength"`
}

// Result is one ranked signal.
type Result struct {
	Signal     Signal
	Score      float64
	Method     string // bm25, vector, hybrid
	Breakdown  ScoreBreakdown
	Trend      *TrendIndicators
	Whitespace *WhitespaceIndicators
}

// Response is the outcome of a search.
type Response struct {
	Results    []Result
	Query      string
	Method     string // hybrid, trend_analysis, whitespace_analysis
	SearchTime time.Duration
}

// ReindexReport summarizes a workspace reindex.
type ReindexReport struct {
	Indexed int
	Failed  int
	// Err joins the first per-signal failures.
	Err error
}

// IndexStats describes the search index.
type IndexStats struct {
	Name           string  `json:"name"`
	Documents      int64   `json:"documents"`
	Indexing       bool    `json:"indexing"`
	PercentIndexed float64 `json:"percent_indexed"`
}
