package chi

import (
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	domanalytics "github.com/kailas-cloud/signalsearch/internal/domain/analytics"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
	analyticsuc "github.com/kailas-cloud/signalsearch/internal/usecase/analytics"
	searchuc "github.com/kailas-cloud/signalsearch/internal/usecase/search"
)

// DateRangeDTO bounds created_at. Timestamps are RFC 3339.
type DateRangeDTO struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// FiltersDTO is the structured filter of a search request.
type FiltersDTO struct {
	Sources    []string      `json:"sources,omitempty"`
	Industries []string      `json:"industries,omitempty"`
	DateRange  *DateRangeDTO `json:"date_range,omitempty"`
}

// WeightsDTO overrides the fusion coefficients. Missing keys keep their defaults.
type WeightsDTO struct {
	BM25   *float64 `json:"bm25,omitempty"`
	Vector *float64 `json:"vector,omitempty"`
	Rerank *float64 `json:"rerank,omitempty"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query         string      `json:"query"`
	Filters       *FiltersDTO `json:"filters,omitempty"`
	Limit         *int        `json:"limit,omitempty"`
	HybridWeights *WeightsDTO `json:"hybrid_weights,omitempty"`
}

// TrendRequest is the body of POST /search/trends.
type TrendRequest struct {
	Query          string `json:"query"`
	TimeWindowDays *int   `json:"time_window_days,omitempty"`
	Limit          *int   `json:"limit,omitempty"`
}

// WhitespaceRequest is the body of POST /search/whitespace.
type WhitespaceRequest struct {
	Industry string `json:"industry"`
	Limit    *int   `json:"limit,omitempty"`
}

// ScoreBreakdownDTO reports every stage's contribution to a result's rank.
type ScoreBreakdownDTO struct {
	BM25     float64 `json:"bm25"`
	Vector   float64 `json:"vector"`
	Rerank   float64 `json:"rerank"`
	Combined float64 `json:"combined"`
	Final    float64 `json:"final"`
}

// TrendIndicatorsDTO annotates trend results.
type TrendIndicatorsDTO struct {
	RecencyScore    float64 `json:"recency_score"`
	SourceDiversity int     `json:"source_diversity"`
	EntityOverlap   int     `json:"entity_overlap"`
}

// WhitespaceIndicatorsDTO annotates whitespace results.
type WhitespaceIndicatorsDTO struct {
	ProblemKeywords    []string `json:"problem_keywords"`
	SolutionGapScore   float64  `json:"solution_gap_score"`
	MarketNeedStrength float64  `json:"market_need_strength"`
}

// SearchResultDTO is one enriched hit.
type SearchResultDTO struct {
	ID          uuid.UUID       `json:"id"`
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	Title       string          `json:"title,omitempty"`
	Content     string          `json:"content"`
	Source      string          `json:"source"`
	URL         string          `json:"url,omitempty"`
	Entities    signal.Entities `json:"entities"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`

	SearchScore    float64           `json:"search_score"`
	SearchMethod   string            `json:"search_method"`
	ScoreBreakdown ScoreBreakdownDTO `json:"score_breakdown"`

	TrendIndicators      *TrendIndicatorsDTO      `json:"trend_indicators,omitempty"`
	WhitespaceIndicators *WhitespaceIndicatorsDTO `json:"whitespace_indicators,omitempty"`
}

// SearchResponse is the body of every search endpoint.
type SearchResponse struct {
	Results      []SearchResultDTO `json:"results"`
	TotalResults int               `json:"total_results"`
	Query        string            `json:"query"`
	SearchTimeMs float64           `json:"search_time_ms"`
	Method       string            `json:"method"`
}

// SuggestionDTO is one query completion.
type SuggestionDTO struct {
	Text     string `json:"text"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

// SuggestionsResponse is the body of GET /search/suggestions.
type SuggestionsResponse struct {
	Suggestions []SuggestionDTO `json:"suggestions"`
	Query       string          `json:"query"`
}

// FacetDTO is one filter value.
type FacetDTO struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count *int   `json:"count,omitempty"`
}

// FiltersResponse is the body of GET /search/filters.
type FiltersResponse struct {
	Sources      []FacetDTO `json:"sources"`
	Industries   []FacetDTO `json:"industries"`
	Technologies []FacetDTO `json:"technologies"`
}

// QueryCountDTO is a popular query.
type QueryCountDTO struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// PerformanceDTO reports the configured fusion contributions.
type PerformanceDTO struct {
	BM25Contribution   float64 `json:"bm25_contribution"`
	VectorContribution float64 `json:"vector_contribution"`
	RerankContribution float64 `json:"rerank_contribution"`
}

// AnalyticsResponse is the body of GET /search/analytics.
type AnalyticsResponse struct {
	WorkspaceID         uuid.UUID        `json:"workspace_id"`
	WindowDays          int              `json:"window_days"`
	TotalSearches       int64            `json:"total_searches"`
	AvgResultsPerSearch float64          `json:"avg_results_per_search"`
	AvgSearchTimeMs     float64          `json:"avg_search_time_ms"`
	TopQueries          []QueryCountDTO  `json:"top_queries"`
	Methods             map[string]int64 `json:"methods"`
	SearchPerformance   PerformanceDTO   `json:"search_performance"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Ready    bool     `json:"ready"`
	NotReady []string `json:"not_ready,omitempty"`
}

// optionalPositive converts an explicitly supplied numeric parameter. Absent means 0
// (the default); an explicit value below 1 is rejected.
func optionalPositive(name string, v *int) (int, error) {
	if v == nil {
		return 0, nil
	}
	if *v < 1 {
		return 0, domain.InvalidRequestf("%s must be at least 1", name)
	}
	return *v, nil
}

func searchRequestFromDTO(workspaceID uuid.UUID, req *SearchRequest) (request.Request, error) {
	limit, err := optionalPositive("limit", req.Limit)
	if err != nil {
		return request.Request{}, err
	}

	w := request.DefaultWeights()
	if hw := req.HybridWeights; hw != nil {
		w, err = request.NewWeights(hw.BM25, hw.Vector, hw.Rerank)
		if err != nil {
			return request.Request{}, err
		}
	}

	return request.New(workspaceID, req.Query, filterFromDTO(req.Filters), limit, w)
}

func filterFromDTO(f *FiltersDTO) request.Filter {
	if f == nil {
		return request.Filter{}
	}
	out := request.Filter{Sources: f.Sources, Industries: f.Industries}
	if f.DateRange != nil {
		out.DateRange = &request.DateRange{From: f.DateRange.From, To: f.DateRange.To}
	}
	return out
}

func trendRequestFromDTO(workspaceID uuid.UUID, req *TrendRequest) (request.Trend, error) {
	window, err := optionalPositive("time_window_days", req.TimeWindowDays)
	if err != nil {
		return request.Trend{}, err
	}
	limit, err := optionalPositive("limit", req.Limit)
	if err != nil {
		return request.Trend{}, err
	}
	return request.NewTrend(workspaceID, req.Query, window, limit)
}

func whitespaceRequestFromDTO(workspaceID uuid.UUID, req *WhitespaceRequest) (request.Whitespace, error) {
	limit, err := optionalPositive("limit", req.Limit)
	if err != nil {
		return request.Whitespace{}, err
	}
	return request.NewWhitespace(workspaceID, req.Industry, limit)
}

func searchResponseToDTO(resp *result.Response) SearchResponse {
	items := make([]SearchResultDTO, len(resp.Results))
	for i := range resp.Results {
		items[i] = searchResultToDTO(&resp.Results[i])
	}
	return SearchResponse{
		Results:      items,
		TotalResults: resp.Total(),
		Query:        resp.Query,
		SearchTimeMs: resp.SearchTimeMs,
		Method:       string(resp.Method),
	}
}

func searchResultToDTO(r *result.Result) SearchResultDTO {
	s := &r.Signal
	item := SearchResultDTO{
		ID:          s.ID,
		WorkspaceID: s.WorkspaceID,
		Title:       s.Title,
		Content:     s.Content,
		Source:      s.Source,
		URL:         s.URL,
		Entities:    s.Entities,
		Metadata:    s.Metadata,
		CreatedAt:   s.CreatedAt.UTC(),
		PublishedAt: s.PublishedAt,

		SearchScore:  r.Score,
		SearchMethod: string(r.Method),
		ScoreBreakdown: ScoreBreakdownDTO{
			BM25:     r.Breakdown.BM25,
			Vector:   r.Breakdown.Vector,
			Rerank:   r.Breakdown.Rerank,
			Combined: r.Breakdown.Combined,
			Final:    r.Breakdown.Final,
		},
	}
	if t := r.Trend; t != nil {
		item.TrendIndicators = &TrendIndicatorsDTO{
			RecencyScore:    t.RecencyScore,
			SourceDiversity: t.SourceDiversity,
			EntityOverlap:   t.EntityOverlap,
		}
	}
	if ws := r.Whitespace; ws != nil {
		item.WhitespaceIndicators = &WhitespaceIndicatorsDTO{
			ProblemKeywords:    ws.ProblemKeywords,
			SolutionGapScore:   ws.SolutionGapScore,
			MarketNeedStrength: ws.MarketNeedStrength,
		}
	}
	return item
}

func suggestionsToDTO(q string, ss []searchuc.Suggestion) SuggestionsResponse {
	items := make([]SuggestionDTO, len(ss))
	for i, s := range ss {
		items[i] = SuggestionDTO{Text: s.Text, Type: s.Type, Category: s.Category}
	}
	return SuggestionsResponse{Suggestions: items, Query: q}
}

func facetsToDTO(f searchuc.Facets) FiltersResponse {
	counted := func(fs []searchuc.Facet) []FacetDTO {
		out := make([]FacetDTO, len(fs))
		for i, f := range fs {
			n := f.Count
			out[i] = FacetDTO{Value: f.Value, Label: f.Label, Count: &n}
		}
		return out
	}
	techs := make([]FacetDTO, len(f.Technologies))
	for i, t := range f.Technologies {
		techs[i] = FacetDTO{Value: t.Value, Label: t.Label}
	}
	return FiltersResponse{
		Sources:      counted(f.Sources),
		Industries:   counted(f.Industries),
		Technologies: techs,
	}
}

func analyticsToDTO(workspaceID uuid.UUID, s *analyticsuc.Summary) AnalyticsResponse {
	top := make([]QueryCountDTO, len(s.TopQueries))
	for i, q := range s.TopQueries {
		top[i] = queryCountToDTO(q)
	}
	methods := s.Methods
	if methods == nil {
		methods = map[string]int64{}
	}
	return AnalyticsResponse{
		WorkspaceID:         workspaceID,
		WindowDays:          s.WindowDays,
		TotalSearches:       s.TotalSearches,
		AvgResultsPerSearch: s.AvgResultsPerSearch,
		AvgSearchTimeMs:     s.AvgSearchTimeMs,
		TopQueries:          top,
		Methods:             methods,
		SearchPerformance: PerformanceDTO{
			BM25Contribution:   s.Performance.BM25Contribution,
			VectorContribution: s.Performance.VectorContribution,
			RerankContribution: s.Performance.RerankContribution,
		},
	}
}

func queryCountToDTO(q domanalytics.QueryCount) QueryCountDTO {
	return QueryCountDTO{Query: q.Query, Count: q.Count}
}
