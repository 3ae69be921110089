package chi

import (
	"context"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	analyticsuc "github.com/kailas-cloud/signalsearch/internal/usecase/analytics"
	healthuc "github.com/kailas-cloud/signalsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/signalsearch/internal/usecase/search"
)

// SearchService runs the hybrid pipeline and its derived views.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) (*result.Response, error)
	Trends(ctx context.Context, t *request.Trend) (*result.Response, error)
	Whitespace(ctx context.Context, w *request.Whitespace) (*result.Response, error)
	Filters(ctx context.Context, workspaceID uuid.UUID) (searchuc.Facets, error)
}

// IndexService projects signals into the search index.
type IndexService interface {
	IndexByID(ctx context.Context, workspaceID, signalID uuid.UUID) error
	Remove(ctx context.Context, signalID uuid.UUID) error
}

// AnalyticsService summarizes a workspace's searches.
type AnalyticsService interface {
	Summary(ctx context.Context, workspaceID uuid.UUID) (analyticsuc.Summary, error)
}

// HealthService reports component health and readiness.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
	Ready(ctx context.Context) healthuc.Readiness
}
