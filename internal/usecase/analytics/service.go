// Package analytics records searches and summarizes them per workspace.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domanalytics "github.com/kailas-cloud/signalsearch/internal/domain/analytics"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/logger"
)

const (
	defaultWindowDays = 30
	topQueries        = 5
)

var views = []string{string(mode.ViewHybrid), string(mode.ViewTrend), string(mode.ViewWhitespace)}

// Performance reports the configured fusion contributions.
type Performance struct {
	BM25Contribution   float64
	VectorContribution float64
	RerankContribution float64
}

// Summary is the analytics report of one workspace.
type Summary struct {
	WindowDays          int
	TotalSearches       int64
	AvgResultsPerSearch float64
	AvgSearchTimeMs     float64
	TopQueries          []domanalytics.QueryCount
	Methods             map[string]int64
	Performance         Performance
}

// Service records search events best-effort and builds summaries.
type Service struct {
	store      Store
	windowDays int
	logger     *zap.Logger
	now        func() time.Time
}

// New creates an analytics service summarizing the last windowDays days.
func New(store Store, windowDays int, l *zap.Logger) *Service {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{store: store, windowDays: windowDays, logger: logger.Component(l, "analytics"), now: time.Now}
}

// RecordSearch stores one search. Failures are logged and never returned.
func (s *Service) RecordSearch(
	ctx context.Context, workspaceID uuid.UUID, query string, view mode.View, results int, took time.Duration,
) {
	e := domanalytics.Event{
		Query:     normalizeQuery(query),
		Method:    string(view),
		Results:   results,
		LatencyMs: took.Milliseconds(),
	}
	if err := s.store.Record(context.WithoutCancel(ctx), workspaceID, s.now(), e); err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Search analytics not recorded",
			zap.String("workspace_id", workspaceID.String()),
			zap.Error(err),
		)
	}
}

// Summary aggregates the workspace's searches over the window.
func (s *Service) Summary(ctx context.Context, workspaceID uuid.UUID) (Summary, error) {
	t, err := s.store.Totals(ctx, workspaceID, s.now(), s.windowDays, views, topQueries)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics totals: %w", err)
	}

	w := request.DefaultWeights()
	sum := Summary{
		WindowDays:    s.windowDays,
		TotalSearches: t.Searches,
		TopQueries:    t.TopQueries,
		Methods:       t.Methods,
		Performance: Performance{
			BM25Contribution:   w.BM25,
			VectorContribution: w.Vector,
			RerankContribution: w.Rerank,
		},
	}
	if sum.TopQueries == nil {
		sum.TopQueries = []domanalytics.QueryCount{}
	}
	if t.Searches > 0 {
		sum.AvgResultsPerSearch = float64(t.Results) / float64(t.Searches)
		sum.AvgSearchTimeMs = float64(t.LatencyMs) / float64(t.Searches)
	}
	return sum, nil
}

// normalizeQuery lowercases and collapses whitespace so equivalent queries share a counter.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
