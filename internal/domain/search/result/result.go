// Package result holds the request-local ranking records and the enriched search hits.
package result

import (
	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
)

// Hit is one retrieved signal with the raw score of the method that found it.
type Hit struct {
	SignalID uuid.UUID
	Score    float64
}

// Candidate is a fused ranking record. It lives for one request only.
type Candidate struct {
	SignalID uuid.UUID

	RawLexical *float64
	RawVector  *float64

	NormalizedLexical float64
	NormalizedVector  float64
	Combined          float64
	Rerank            *float64
	Final             float64

	Method mode.Method
}

// Breakdown returns the per-stage score record attached to the enriched result.
func (c *Candidate) Breakdown() ScoreBreakdown {
	b := ScoreBreakdown{
		BM25:     c.NormalizedLexical,
		Vector:   c.NormalizedVector,
		Combined: c.Combined,
		Final:    c.Final,
	}
	if c.Rerank != nil {
		b.Rerank = *c.Rerank
	}
	return b
}

// ScoreBreakdown reports every stage's contribution to a result's rank.
type ScoreBreakdown struct {
	BM25     float64
	Vector   float64
	Rerank   float64
	Combined float64
	Final    float64
}

// TrendIndicators annotate trend results without affecting their order.
type TrendIndicators struct {
	RecencyScore    float64
	SourceDiversity int
	EntityOverlap   int
}

// WhitespaceIndicators annotate whitespace results without affecting their order.
type WhitespaceIndicators struct {
	ProblemKeywords    []string
	SolutionGapScore   float64
	MarketNeedStrength float64
}

// Result is an enriched search hit.
type Result struct {
	Signal    signal.Signal
	Score     float64
	Method    mode.Method
	Breakdown ScoreBreakdown

	Trend      *TrendIndicators
	Whitespace *WhitespaceIndicators
}

// Response is the outcome of one search call.
type Response struct {
	Results      []Result
	Query        string
	SearchTimeMs float64
	Method       mode.View
}

// Total returns the number of results in the response.
func (r *Response) Total() int { return len(r.Results) }
