package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBreaker_OpensAfterFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewBreaker[int]("rerank", BreakerConfig{
		MinRequests:  3,
		FailureRatio: 0.5,
		OpenTimeout:  time.Minute,
	}, zap.New(core))

	boom := errors.New("upstream 503")
	for range 3 {
		if _, err := b.Execute(context.Background(), func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}

	calls := 0
	_, err := b.Execute(context.Background(), func(context.Context) (int, error) {
		calls++
		return 1, nil
	})
	if !IsOpen(err) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls != 0 {
		t.Fatal("open breaker must not call through")
	}
	if b.State() != "open" {
		t.Fatalf("expected state open, got %s", b.State())
	}
	if logs.FilterMessage("Circuit breaker state change").Len() == 0 {
		t.Fatal("expected state change to be logged")
	}
}

func TestBreaker_CancellationIsNotAFailure(t *testing.T) {
	b := NewBreaker[int]("rerank", BreakerConfig{MinRequests: 1, FailureRatio: 0.1}, nil)

	for range 5 {
		_, _ = b.Execute(context.Background(), func(context.Context) (int, error) { return 0, context.Canceled })
	}
	if b.State() != "closed" {
		t.Fatalf("expected closed breaker, got %s", b.State())
	}
}

func TestBreaker_PassesValueThrough(t *testing.T) {
	b := NewBreaker[[]float64]("rerank", BreakerConfig{}, nil)
	got, err := b.Execute(context.Background(), func(context.Context) ([]float64, error) {
		return []float64{0.3}, nil
	})
	if err != nil || len(got) != 1 || got[0] != 0.3 {
		t.Fatalf("Execute() = %v, %v", got, err)
	}
}

func TestIsOpen(t *testing.T) {
	if IsOpen(errors.New("other")) || IsOpen(nil) {
		t.Fatal("IsOpen must be false for unrelated errors")
	}
}
