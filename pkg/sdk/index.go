package signalsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/db"
)

// EnsureIndex creates the search index if it does not exist and reports whether it did.
func (c *Client) EnsureIndex(ctx context.Context) (created bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_index", start, err) }()

	return c.indexMgr.Ensure(ctx)
}

// DropIndex removes the search index. Indexed documents stay in Redis and are picked
// up again by the next EnsureIndex. A missing index is not an error.
func (c *Client) DropIndex(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("drop_index", start, err) }()

	return c.indexMgr.Drop(ctx)
}

// IndexStats reports the size and backfill progress of the search index.
// It returns ErrNotFound when the index does not exist.
func (c *Client) IndexStats(ctx context.Context) (stats IndexStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index_stats", start, err) }()

	info, err := c.indexMgr.Stats(ctx)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return IndexStats{}, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return IndexStats{}, err
	}
	return IndexStats{
		Name:           info.Name,
		Documents:      info.NumDocs,
		Indexing:       info.Indexing,
		PercentIndexed: info.PercentIndexed,
	}, nil
}

// Index loads a signal from Postgres and writes its IndexedDocument. Re-indexing overwrites.
func (c *Client) Index(ctx context.Context, workspaceID, signalID uuid.UUID) (err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("index", start, err, workspaceField(workspaceID), zap.Stringer("signal_id", signalID))
	}()

	return c.indexSvc.IndexByID(ctx, workspaceID, signalID)
}

// Remove deletes a signal from the index.
func (c *Client) Remove(ctx context.Context, signalID uuid.UUID) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("remove", start, err, zap.Stringer("signal_id", signalID)) }()

	return c.indexSvc.Remove(ctx, signalID)
}

// Reindex indexes every signal of a workspace. Per-signal failures are reported,
// not returned; err is set only when listing the workspace failed.
func (c *Client) Reindex(ctx context.Context, workspaceID uuid.UUID) (report ReindexReport, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("reindex", start, err, workspaceField(workspaceID),
			zap.Int("indexed", report.Indexed), zap.Int("failed", report.Failed))
	}()

	r, err := c.indexSvc.Reindex(ctx, workspaceID)
	return ReindexReport{Indexed: r.Indexed, Failed: r.Failed, Err: r.Errors}, err
}

// Count returns how many signals of the workspace are indexed.
func (c *Client) Count(ctx context.Context, workspaceID uuid.UUID) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("count", start, err, workspaceField(workspaceID)) }()

	return c.indexSvc.Count(ctx, workspaceID)
}
