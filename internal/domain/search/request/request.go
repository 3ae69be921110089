package request

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
)

// Search parameter limits.
const (
	MaxQueryLength    = 500
	MaxIndustryLength = 100
	DefaultLimit      = 20
	MaxLimit          = 100

	DefaultTrendLimit      = 10
	MaxTrendLimit          = 50
	DefaultTrendWindowDays = 30
	MaxTrendWindowDays     = 365

	DefaultWhitespaceLimit = 20
	MaxWhitespaceLimit     = 50
)

// Index field names the filter is rendered against.
const (
	FieldWorkspaceID = "workspace_id"
	FieldSource      = "source"
	FieldIndustries  = "industries"
	FieldCreatedAt   = "created_at"
)

// DateRange bounds created_at, inclusive at both ends. Either side may be open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Filter is the optional structured constraint of a search. Present fields are ANDed,
// values inside one field are ORed.
type Filter struct {
	Sources    []string
	Industries []string
	DateRange  *DateRange
}

// Validate rejects inverted date ranges.
func (f Filter) Validate() error {
	if dr := f.DateRange; dr != nil && dr.From != nil && dr.To != nil && dr.From.After(*dr.To) {
		return domain.InvalidRequestf("date_range.from must not be after date_range.to")
	}
	return nil
}

// Expression renders the filter scoped to workspaceID.
func (f Filter) Expression(workspaceID uuid.UUID) (filter.Expression, error) {
	ws, err := filter.NewMatch(FieldWorkspaceID, workspaceID.String())
	if err != nil {
		return filter.Expression{}, err
	}
	conds := []filter.Condition{ws}

	if len(f.Sources) > 0 {
		c, err := filter.NewMatchAny(FieldSource, f.Sources...)
		if err != nil {
			return filter.Expression{}, domain.InvalidRequestf("filters.sources: %v", err)
		}
		conds = append(conds, c)
	}
	if len(f.Industries) > 0 {
		c, err := filter.NewMatchAny(FieldIndustries, f.Industries...)
		if err != nil {
			return filter.Expression{}, domain.InvalidRequestf("filters.industries: %v", err)
		}
		conds = append(conds, c)
	}
	if dr := f.DateRange; dr != nil && (dr.From != nil || dr.To != nil) {
		var gte, lte *float64
		if dr.From != nil {
			v := float64(dr.From.Unix())
			gte = &v
		}
		if dr.To != nil {
			v := float64(dr.To.Unix())
			lte = &v
		}
		r, err := filter.NewRangeFilter(nil, gte, nil, lte)
		if err != nil {
			return filter.Expression{}, domain.InvalidRequestf("filters.date_range: %v", err)
		}
		c, err := filter.NewRange(FieldCreatedAt, r)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, c)
	}

	expr, err := filter.All(conds...)
	if err != nil {
		return filter.Expression{}, domain.InvalidRequestf("%v", err)
	}
	return expr, nil
}

// Weights are the fusion coefficients. They are applied as-is, without normalization.
type Weights struct {
	BM25   float64
	Vector float64
	Rerank float64
}

// DefaultWeights returns {0.4, 0.4, 0.2}.
func DefaultWeights() Weights {
	return Weights{BM25: 0.4, Vector: 0.4, Rerank: 0.2}
}

// NewWeights fills unset coefficients from the defaults and rejects negative or non-finite ones.
func NewWeights(bm25, vector, rerank *float64) (Weights, error) {
	w := DefaultWeights()
	for _, p := range []struct {
		name string
		v    *float64
		dst  *float64
	}{
		{"bm25", bm25, &w.BM25},
		{"vector", vector, &w.Vector},
		{"rerank", rerank, &w.Rerank},
	} {
		if p.v == nil {
			continue
		}
		if math.IsNaN(*p.v) || math.IsInf(*p.v, 0) || *p.v < 0 {
			return Weights{}, domain.InvalidRequestf("hybrid_weights.%s must be a non-negative number", p.name)
		}
		*p.dst = *p.v
	}
	return w, nil
}

// Request is a validated core search query.
type Request struct {
	workspaceID uuid.UUID
	query       string
	filter      Filter
	limit       int
	weights     Weights
}

// New validates a search request. Limit 0 selects the default.
func New(workspaceID uuid.UUID, query string, f Filter, limit int, w Weights) (Request, error) {
	return newRequest(workspaceID, query, f, limit, w, DefaultLimit, MaxLimit)
}

func newRequest(workspaceID uuid.UUID, query string, f Filter, limit int, w Weights, defLimit, maxLimit int) (Request, error) {
	if workspaceID == uuid.Nil {
		return Request{}, domain.InvalidRequestf("workspace_id is required")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.InvalidRequestf("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, domain.InvalidRequestf("query too long (max %d chars)", MaxQueryLength)
	}
	if limit == 0 {
		limit = defLimit
	}
	if limit < 1 || limit > maxLimit {
		return Request{}, domain.InvalidRequestf("limit must be between 1 and %d", maxLimit)
	}
	if err := f.Validate(); err != nil {
		return Request{}, err
	}
	return Request{workspaceID: workspaceID, query: query, filter: f, limit: limit, weights: w}, nil
}

// WorkspaceID returns the tenant scope.
func (r *Request) WorkspaceID() uuid.UUID { return r.workspaceID }

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// Filter returns the structured filter.
func (r *Request) Filter() Filter { return r.filter }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// PerMethodLimit is the candidate count requested from each retrieval method.
func (r *Request) PerMethodLimit() int { return 2 * r.limit }

// Weights returns the fusion coefficients.
func (r *Request) Weights() Weights { return r.weights }

// WithQuery returns a copy with a different query and limit, keeping scope, filter and weights.
func (r *Request) WithQuery(query string, limit int) Request {
	c := *r
	c.query = query
	c.limit = limit
	return c
}

// WithFilter returns a copy with a different filter.
func (r *Request) WithFilter(f Filter) Request {
	c := *r
	c.filter = f
	return c
}

// Trend is a validated trend search: the core query restricted to a recent window.
type Trend struct {
	Request
	windowDays int
}

// NewTrend validates a trend request. Zero window or limit selects the default.
func NewTrend(workspaceID uuid.UUID, query string, windowDays, limit int) (Trend, error) {
	if windowDays == 0 {
		windowDays = DefaultTrendWindowDays
	}
	if windowDays < 1 || windowDays > MaxTrendWindowDays {
		return Trend{}, domain.InvalidRequestf("time_window_days must be between 1 and %d", MaxTrendWindowDays)
	}
	r, err := newRequest(workspaceID, query, Filter{}, limit, DefaultWeights(), DefaultTrendLimit, MaxTrendLimit)
	if err != nil {
		return Trend{}, err
	}
	return Trend{Request: r, windowDays: windowDays}, nil
}

// WindowDays returns the look-back window.
func (t *Trend) WindowDays() int { return t.windowDays }

// Whitespace is a validated market-gap search over one industry.
type Whitespace struct {
	workspaceID uuid.UUID
	industry    string
	limit       int
}

// NewWhitespace validates a whitespace request. Limit 0 selects the default.
func NewWhitespace(workspaceID uuid.UUID, industry string, limit int) (Whitespace, error) {
	if workspaceID == uuid.Nil {
		return Whitespace{}, domain.InvalidRequestf("workspace_id is required")
	}
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return Whitespace{}, domain.InvalidRequestf("industry is required")
	}
	if utf8.RuneCountInString(industry) > MaxIndustryLength {
		return Whitespace{}, domain.InvalidRequestf("industry too long (max %d chars)", MaxIndustryLength)
	}
	if limit == 0 {
		limit = DefaultWhitespaceLimit
	}
	if limit < 1 || limit > MaxWhitespaceLimit {
		return Whitespace{}, domain.InvalidRequestf("limit must be between 1 and %d", MaxWhitespaceLimit)
	}
	return Whitespace{workspaceID: workspaceID, industry: industry, limit: limit}, nil
}

// WorkspaceID returns the tenant scope.
func (w *Whitespace) WorkspaceID() uuid.UUID { return w.workspaceID }

// Industry returns the target industry.
func (w *Whitespace) Industry() string { return w.industry }

// Limit returns the maximum results to return.
func (w *Whitespace) Limit() int { return w.limit }
