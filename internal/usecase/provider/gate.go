// Package provider lazily initializes external providers exactly once.
package provider

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/signalsearch/internal/domain"
)

// Loader builds a provider. It may be called again after a failure.
type Loader[T any] func(ctx context.Context) (T, error)

// Gate hands out a provider once its loader has succeeded.
// Reads after the first success are lock-free; failures are not cached.
type Gate[T any] struct {
	name  string
	load  Loader[T]
	mu    sync.Mutex
	value atomic.Pointer[T]
}

// NewGate creates a gate named for logs and readiness reports.
func NewGate[T any](name string, load Loader[T]) *Gate[T] {
	return &Gate[T]{name: name, load: load}
}

// Ready wraps an already constructed provider.
func Ready[T any](name string, v T) *Gate[T] {
	g := &Gate[T]{name: name}
	g.value.Store(&v)
	return g
}

// Name returns the gate name.
func (g *Gate[T]) Name() string { return g.name }

// Get returns the provider, loading it on first use.
func (g *Gate[T]) Get(ctx context.Context) (T, error) {
	if v := g.value.Load(); v != nil {
		return *v, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if v := g.value.Load(); v != nil {
		return *v, nil
	}
	if g.load == nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", g.name, domain.ErrProviderNotReady)
	}

	v, err := g.load(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w: %w", g.name, domain.ErrProviderNotReady, err)
	}
	g.value.Store(&v)
	return v, nil
}

// Warm loads the provider eagerly.
func (g *Gate[T]) Warm(ctx context.Context) error {
	_, err := g.Get(ctx)
	return err
}

// IsReady reports whether a provider has been loaded.
func (g *Gate[T]) IsReady() bool {
	return g.value.Load() != nil
}
