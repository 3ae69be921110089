package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"

	domanalytics "github.com/kailas-cloud/signalsearch/internal/domain/analytics"
)

// Store persists day-bucketed search counters.
type Store interface {
	Record(ctx context.Context, workspaceID uuid.UUID, day time.Time, e domanalytics.Event) error
	Totals(
		ctx context.Context, workspaceID uuid.UUID, until time.Time, days int, methods []string, topN int,
	) (domanalytics.Totals, error)
}
