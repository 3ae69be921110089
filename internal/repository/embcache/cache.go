// Package embcache memoizes embeddings in Redis, keyed by model and input text.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/signalsearch/internal/db"
	"github.com/kailas-cloud/signalsearch/internal/domain"
)

const keySpace = "emb_cache:"

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configure cache keys and expiry.
type Options struct {
	// Prefix namespaces the keys, e.g. "signalsearch:".
	Prefix string
	// Model is folded into the key so a model change never serves stale vectors.
	Model string
	// TTL of each entry. Zero keeps entries forever.
	TTL time.Duration
}

// Embedder wraps another embedder with a read-through cache. Concurrent misses
// for the same text share one provider call.
type Embedder struct {
	next    domain.Embedder
	store   store
	opts    Options
	lookups *prometheus.CounterVec
	logger  *zap.Logger
	flight  singleflight.Group
}

// New wraps next. lookups is labelled by result ("hit" or "miss") and may be nil.
func New(next domain.Embedder, s store, opts Options, lookups *prometheus.CounterVec, l *zap.Logger) *Embedder {
	if l == nil {
		l = zap.NewNop()
	}
	return &Embedder{next: next, store: s, opts: opts, lookups: lookups, logger: l}
}

// Embed serves text from the cache when possible. Hits report zero tokens.
func (c *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec, ok := c.load(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	v, err, _ := c.flight.Do(key, func() (any, error) {
		res, err := c.next.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		c.save(ctx, key, res.Embedding)
		return res, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	return v.(domain.EmbeddingResult), nil
}

func (c *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.opts.Model + "\x00" + text))
	return c.opts.Prefix + keySpace + hex.EncodeToString(sum[:])
}

func (c *Embedder) load(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decode(raw)
	if err != nil {
		c.logger.Warn("embedding cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, len(vec) > 0
}

func (c *Embedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	raw := encode(vec)

	var err error
	if c.opts.TTL > 0 {
		err = c.store.SetWithTTL(ctx, key, raw, c.opts.TTL)
	} else {
		err = c.store.Set(ctx, key, raw)
	}
	if err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Embedder) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}
