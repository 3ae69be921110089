package search

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
)

const (
	recencyDecayDays   = 7.0
	diversityWindow    = 5
	hoursPerDay        = 24
	whitespaceQueryFmt = "whitespace in %s"
)

// Trends runs the core pipeline over the recent window and annotates each result.
// Ranking is the same as Search.
func (s *Service) Trends(ctx context.Context, t *request.Trend) (*result.Response, error) {
	start := time.Now()
	now := s.now()

	from := now.AddDate(0, 0, -t.WindowDays())
	req := t.WithFilter(request.Filter{DateRange: &request.DateRange{From: &from}})

	results, err := s.pipeline(ctx, &req)
	if err != nil {
		return nil, err
	}

	diversity := sourceDiversity(results, diversityWindow)
	for i := range results {
		results[i].Trend = &result.TrendIndicators{
			RecencyScore:    recencyScore(results[i].Signal.CreatedAt, now),
			SourceDiversity: diversity,
			EntityOverlap:   len(results[i].Signal.Entities.Industries),
		}
	}

	return s.respond(ctx, t.WorkspaceID(), results, t.Query(), mode.ViewTrend, start), nil
}

// recencyScore decays by e^(-days/7) over whole days of age. Future timestamps count as today.
func recencyScore(createdAt, now time.Time) float64 {
	days := math.Floor(now.Sub(createdAt).Hours() / hoursPerDay)
	if days < 0 {
		days = 0
	}
	return math.Exp(-days / recencyDecayDays)
}

// sourceDiversity counts distinct sources among the first n results.
func sourceDiversity(results []result.Result, n int) int {
	seen := make(map[string]struct{}, n)
	for i := 0; i < len(results) && i < n; i++ {
		seen[results[i].Signal.Source] = struct{}{}
	}
	return len(seen)
}

var whitespaceTemplates = []string{
	"problems in %s",
	"challenges %s",
	"missing %s",
	"need %s",
	"frustration %s",
	"wish %s had",
}

// problemKeywords is the vocabulary reported as whitespace problem keywords.
var problemKeywords = []string{
	"problem", "issue", "challenge", "difficulty", "struggle",
	"frustration", "pain", "missing", "lack", "need", "want",
	"wish", "hope", "better", "improve", "fix", "solve",
}

// gapIndicators are phrases that suggest no solution exists yet.
var gapIndicators = []string{
	"no solution", "doesn't exist", "missing", "gap in market",
	"nobody does", "wish there was", "need something", "looking for",
}

// Whitespace runs one pipeline per gap template, restricted to the industry, and merges
// the results in template order. The first occurrence of a signal wins.
func (s *Service) Whitespace(ctx context.Context, w *request.Whitespace) (*result.Response, error) {
	start := time.Now()
	perTemplate := (w.Limit() + len(whitespaceTemplates) - 1) / len(whitespaceTemplates)
	f := request.Filter{Industries: []string{w.Industry()}}

	reqs := make([]request.Request, len(whitespaceTemplates))
	for i, tmpl := range whitespaceTemplates {
		q := strings.ReplaceAll(tmpl, "%s", w.Industry())
		r, err := request.New(w.WorkspaceID(), q, f, perTemplate, request.DefaultWeights())
		if err != nil {
			return nil, err
		}
		reqs[i] = r
	}

	perResults, err := s.runAll(ctx, reqs)
	if err != nil {
		return nil, err
	}

	merged := dedupe(perResults)
	if len(merged) > w.Limit() {
		merged = merged[:w.Limit()]
	}
	for i := range merged {
		content := strings.ToLower(merged[i].Signal.Content)
		merged[i].Whitespace = &result.WhitespaceIndicators{
			ProblemKeywords:    matchKeywords(content),
			SolutionGapScore:   solutionGapScore(content),
			MarketNeedStrength: merged[i].Score,
		}
	}

	query := strings.ReplaceAll(whitespaceQueryFmt, "%s", w.Industry())
	return s.respond(ctx, w.WorkspaceID(), merged, query, mode.ViewWhitespace, start), nil
}

// runAll executes reqs on the pool. Output slot i always holds reqs[i]'s results.
func (s *Service) runAll(ctx context.Context, reqs []request.Request) ([][]result.Result, error) {
	out := make([][]result.Result, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i := range reqs {
		task := func() {
			defer wg.Done()
			out[i], errs[i] = s.pipeline(ctx, &reqs[i])
		}
		wg.Add(1)
		if err := s.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// dedupe flattens per-template results, keeping each signal's first occurrence.
func dedupe(perTemplate [][]result.Result) []result.Result {
	seen := make(map[uuid.UUID]struct{})
	var out []result.Result
	for _, results := range perTemplate {
		for _, r := range results {
			if _, dup := seen[r.Signal.ID]; dup {
				continue
			}
			seen[r.Signal.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// matchKeywords returns the vocabulary terms found in lowercase content.
func matchKeywords(content string) []string {
	found := []string{}
	for _, kw := range problemKeywords {
		if strings.Contains(content, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// solutionGapScore is the share of gap indicators present, capped at 1.
func solutionGapScore(content string) float64 {
	matches := 0
	for _, phrase := range gapIndicators {
		if strings.Contains(content, phrase) {
			matches++
		}
	}
	return math.Min(float64(matches)/float64(len(gapIndicators)), 1)
}
