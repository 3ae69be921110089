// Package nats carries signal lifecycle events between ingestion and the indexer.
package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Options tune the connection.
type Options struct {
	Name           string
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
	DrainTimeout   time.Duration
}

func (o Options) normalize() Options {
	if o.Name == "" {
		o.Name = "signalsearch"
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 2 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = 60
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = 5 * time.Second
	}
	return o
}

// Handler processes one decoded event. Returned errors are logged, not redelivered.
type Handler func(ctx context.Context, e SignalEvent) error

// Bus publishes and consumes SignalEvents.
type Bus struct {
	conn   *nats.Conn
	opts   Options
	logger *zap.Logger
}

// Connect dials the NATS server at url.
func Connect(url string, opts Options, logger *zap.Logger) (*Bus, error) {
	opts = opts.normalize()
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := nats.Connect(
		url,
		nats.Name(opts.Name),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Bus{conn: conn, opts: opts, logger: logger}, nil
}

// Close closes the connection.
func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

// Ping reports whether the connection is up.
func (b *Bus) Ping(_ context.Context) error {
	if b.conn == nil || !b.conn.IsConnected() {
		return fmt.Errorf("nats: %w", nats.ErrDisconnected)
	}
	return nil
}

// Publish sends e on subject.
func (b *Bus) Publish(_ context.Context, subject string, e SignalEvent) error {
	data, err := e.Encode()
	if err != nil {
		return err
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Flush waits until the server has received every published message.
func (b *Bus) Flush() error {
	if err := b.conn.FlushTimeout(b.opts.DrainTimeout); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

// Subscribe queue-subscribes handler to subject and blocks until ctx is done,
// then drains in-flight messages.
func (b *Bus) Subscribe(ctx context.Context, subject, group string, handler Handler) error {
	sub, err := b.conn.QueueSubscribe(subject, group, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		b.dispatch(ctx, msg.Subject, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	b.logger.Info("Subscribed", zap.String("subject", subject), zap.String("queue", group))

	<-ctx.Done()
	if err := sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := b.conn.FlushTimeout(b.opts.DrainTimeout); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (b *Bus) dispatch(ctx context.Context, subject string, data []byte, handler Handler) {
	e, err := DecodeSignalEvent(data)
	if err != nil {
		b.logger.Warn("Dropping malformed event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := handler(ctx, e); err != nil {
		b.logger.Error("Event handler failed",
			zap.String("subject", subject),
			zap.String("signal_id", e.SignalID.String()),
			zap.String("workspace_id", e.WorkspaceID.String()),
			zap.Error(err),
		)
	}
}
