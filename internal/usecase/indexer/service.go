// Package indexer projects signals into the lexical/vector index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
	"github.com/kailas-cloud/signalsearch/internal/logger"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
)

const (
	defaultWorkers  = 8
	defaultPageSize = 200
	maxReportErrors = 10
)

// ReindexReport summarizes a workspace reindex.
type ReindexReport struct {
	Indexed int
	Failed  int
	// Errors joins the first failures, nil when every signal was indexed.
	Errors error
}

// Service indexes signals. It performs no retries; redelivery belongs to the caller.
type Service struct {
	docs     DocumentStore
	signals  SignalReader
	embed    Embedder
	pool     *ants.Pool
	pageSize int
	logger   *zap.Logger
}

// New creates an indexer with a bounded reindex worker pool. Call Release when done.
func New(docs DocumentStore, signals SignalReader, embed Embedder, workers int, l *zap.Logger) (*Service, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create reindex pool: %w", err)
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		docs:     docs,
		signals:  signals,
		embed:    embed,
		pool:     pool,
		pageSize: defaultPageSize,
		logger:   logger.Component(l, "indexer"),
	}, nil
}

// WithPageSize sets how many signals Reindex reads per page.
func (s *Service) WithPageSize(n int) *Service {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

// Release stops the worker pool.
func (s *Service) Release() {
	s.pool.Release()
}

// Index embeds sig and upserts its IndexedDocument in a single write.
// Re-indexing the same signal overwrites the existing document.
func (s *Service) Index(ctx context.Context, sig *signal.Signal) error {
	id := sig.ID.String()

	if err := sig.Validate(); err != nil {
		return s.fail(domain.IndexOpValidate, id, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
	}

	emb, err := s.embed.Embed(ctx, sig.Text())
	if err != nil {
		return s.fail(domain.IndexOpEmbed, id, err)
	}

	doc, err := signal.NewIndexedDocument(sig, emb.Embedding)
	if err != nil {
		return s.fail(domain.IndexOpEmbed, id, err)
	}

	created, err := s.docs.Upsert(ctx, &doc)
	if err != nil {
		return s.fail(domain.IndexOpUpsert, id, err)
	}

	metrics.IndexOperationsTotal.WithLabelValues(domain.IndexOpUpsert, "ok").Inc()
	logger.FromContextOr(ctx, s.logger).Debug("Signal indexed",
		zap.String("signal_id", id),
		zap.String("workspace_id", sig.WorkspaceID.String()),
		zap.Bool("created", created),
	)
	return nil
}

// IndexByID loads a signal from the document store and indexes it.
func (s *Service) IndexByID(ctx context.Context, workspaceID, signalID uuid.UUID) error {
	sig, err := s.signals.GetByID(ctx, workspaceID, signalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("signal %s: %w", signalID, err)
		}
		return s.fail(domain.IndexOpValidate, signalID.String(), fmt.Errorf("load signal: %w", err))
	}
	return s.Index(ctx, &sig)
}

// Remove deletes the IndexedDocument of signalID.
func (s *Service) Remove(ctx context.Context, signalID uuid.UUID) error {
	if err := s.docs.Delete(ctx, signalID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("indexed signal %s: %w", signalID, err)
		}
		return s.fail(domain.IndexOpRemove, signalID.String(), err)
	}
	metrics.IndexOperationsTotal.WithLabelValues(domain.IndexOpRemove, "ok").Inc()
	return nil
}

// Count returns how many documents of workspaceID are in the index.
func (s *Service) Count(ctx context.Context, workspaceID uuid.UUID) (int, error) {
	n, err := s.docs.Count(ctx, workspaceID)
	if err != nil {
		return 0, fmt.Errorf("count indexed signals: %w", err)
	}
	return n, nil
}

// Reindex indexes every signal of workspaceID on the worker pool.
// Per-signal failures are counted in the report; only a listing failure aborts.
func (s *Service) Reindex(ctx context.Context, workspaceID uuid.UUID) (ReindexReport, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report ReindexReport
		errs   []error
	)

	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			report.Indexed++
			return
		}
		report.Failed++
		if len(errs) < maxReportErrors {
			errs = append(errs, err)
		}
	}

	after := uuid.Nil
	var listErr error
	for {
		if err := ctx.Err(); err != nil {
			listErr = err
			break
		}
		page, err := s.signals.ListByWorkspace(ctx, workspaceID, after, s.pageSize)
		if err != nil {
			listErr = fmt.Errorf("list signals after %s: %w", after, err)
			break
		}
		for i := range page {
			sig := page[i]
			wg.Add(1)
			if err := s.pool.Submit(func() {
				defer wg.Done()
				record(s.Index(ctx, &sig))
			}); err != nil {
				wg.Done()
				record(s.fail(domain.IndexOpUpsert, sig.ID.String(), fmt.Errorf("submit: %w", err)))
			}
		}
		if len(page) < s.pageSize {
			break
		}
		after = page[len(page)-1].ID
	}
	wg.Wait()

	report.Errors = errors.Join(errs...)
	s.logger.Info("Reindex finished",
		zap.String("workspace_id", workspaceID.String()),
		zap.Int("indexed", report.Indexed),
		zap.Int("failed", report.Failed),
	)
	if listErr != nil {
		return report, listErr
	}
	return report, nil
}

func (s *Service) fail(op, signalID string, err error) error {
	metrics.IndexOperationsTotal.WithLabelValues(op, "error").Inc()
	return &domain.IndexError{Op: op, SignalID: signalID, Err: err}
}
