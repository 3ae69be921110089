package main

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/domain"
	natsbus "github.com/kailas-cloud/signalsearch/internal/transport/nats"
)

// indexService is the slice of the indexer the event handlers drive.
type indexService interface {
	IndexByID(ctx context.Context, workspaceID, signalID uuid.UUID) error
	Remove(ctx context.Context, signalID uuid.UUID) error
}

// onCreated projects a newly created signal into the index.
func onCreated(svc indexService, logger *zap.Logger) natsbus.Handler {
	return func(ctx context.Context, e natsbus.SignalEvent) error {
		if err := svc.IndexByID(ctx, e.WorkspaceID, e.SignalID); err != nil {
			return err
		}
		logger.Debug("Signal indexed",
			zap.String("signal_id", e.SignalID.String()),
			zap.String("workspace_id", e.WorkspaceID.String()),
		)
		return nil
	}
}

// onDeleted removes a signal from the index. A signal that was never indexed is not an error.
func onDeleted(svc indexService, logger *zap.Logger) natsbus.Handler {
	return func(ctx context.Context, e natsbus.SignalEvent) error {
		err := svc.Remove(ctx, e.SignalID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Signal was not indexed", zap.String("signal_id", e.SignalID.String()))
			return nil
		}
		return err
	}
}
