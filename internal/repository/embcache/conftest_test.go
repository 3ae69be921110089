package embcache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/signalsearch/internal/db"
	"github.com/kailas-cloud/signalsearch/internal/domain"
)

type stubEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  atomic.Int32
	// gate blocks Embed until closed when set.
	gate chan struct{}
}

func (s *stubEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return domain.EmbeddingResult{}, ctx.Err()
		}
	}
	return s.result, s.err
}

type fakeKV struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setFn        func(ctx context.Context, key string, value []byte) error
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (f *fakeKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getFn != nil {
		return f.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (f *fakeKV) Set(ctx context.Context, key string, value []byte) error {
	if f.setFn != nil {
		return f.setFn(ctx, key, value)
	}
	return nil
}

func (f *fakeKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setWithTTLFn != nil {
		return f.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}
