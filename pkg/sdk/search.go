package signalsearch

import (
	"context"
	"time"

	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
)

// Search runs the hybrid pipeline. Retrieval and rerank failures degrade the result
// instead of failing the call.
func (c *Client) Search(ctx context.Context, req SearchRequest) (resp Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, workspaceField(req.WorkspaceID)) }()

	w := request.DefaultWeights()
	if req.Weights != nil {
		w, err = request.NewWeights(req.Weights.BM25, req.Weights.Vector, req.Weights.Rerank)
		if err != nil {
			return Response{}, err
		}
	}
	f := request.Filter{Sources: req.Filter.Sources, Industries: req.Filter.Industries}
	if req.Filter.From != nil || req.Filter.To != nil {
		f.DateRange = &request.DateRange{From: req.Filter.From, To: req.Filter.To}
	}

	r, err := request.New(req.WorkspaceID, req.Query, f, req.Limit, w)
	if err != nil {
		return Response{}, err
	}
	out, err := c.searchSvc.Search(ctx, &r)
	if err != nil {
		return Response{}, err
	}
	return responseFromDomain(out), nil
}

// Trends searches the recent window and annotates results with trend indicators.
func (c *Client) Trends(ctx context.Context, req TrendRequest) (resp Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("trends", start, err, workspaceField(req.WorkspaceID)) }()

	t, err := request.NewTrend(req.WorkspaceID, req.Query, req.WindowDays, req.Limit)
	if err != nil {
		return Response{}, err
	}
	out, err := c.searchSvc.Trends(ctx, &t)
	if err != nil {
		return Response{}, err
	}
	return responseFromDomain(out), nil
}

// Whitespace looks for unmet needs in an industry.
func (c *Client) Whitespace(ctx context.Context, req WhitespaceRequest) (resp Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("whitespace", start, err, workspaceField(req.WorkspaceID)) }()

	w, err := request.NewWhitespace(req.WorkspaceID, req.Industry, req.Limit)
	if err != nil {
		return Response{}, err
	}
	out, err := c.searchSvc.Whitespace(ctx, &w)
	if err != nil {
		return Response{}, err
	}
	return responseFromDomain(out), nil
}

func responseFromDomain(r *result.Response) Response {
	results := make([]Result, len(r.Results))
	for i := range r.Results {
		results[i] = resultFromDomain(&r.Results[i])
	}
	return Response{
		Results:    results,
		Query:      r.Query,
		Method:     string(r.Method),
		SearchTime: time.Duration(r.SearchTimeMs * float64(time.Millisecond)),
	}
}

func resultFromDomain(r *result.Result) Result {
	s := &r.Signal
	out := Result{
		Signal: Signal{
			ID:                 s.ID,
			WorkspaceID:        s.WorkspaceID,
			Title:              s.Title,
			Content:            s.Content,
			Source:             s.Source,
			URL:                s.URL,
			Industries:         s.Entities.Industries,
			Technologies:       s.Entities.Technologies,
			Companies:          s.Entities.Companies,
			MonetizationModels: s.Entities.MonetizationModels,
			Metadata:           s.Metadata,
			CreatedAt:          s.CreatedAt,
			PublishedAt:        s.PublishedAt,
		},
		Score:     r.Score,
		Method:    string(r.Method),
		Breakdown: ScoreBreakdown(r.Breakdown),
	}
	if t := r.Trend; t != nil {
		out.Trend = &TrendIndicators{
			RecencyScore:    t.RecencyScore,
			SourceDiversity: t.SourceDiversity,
			EntityOverlap:   t.EntityOverlap,
		}
	}
	if ws := r.Whitespace; ws != nil {
		out.Whitespace = &WhitespaceIndicators{
			ProblemKeywords:    ws.ProblemKeywords,
			SolutionGapScore:   ws.SolutionGapScore,
			MarketNeedStrength: ws.MarketNeedStrength,
		}
	}
	return out
}
