package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"local", "dev", "test", "prod", "docker"} {
		if _, err := NewLogger(env, ""); err != nil {
			t.Errorf("NewLogger(%q): unexpected error: %v", env, err)
		}
	}
}

func TestNewLogger_UnknownEnv(t *testing.T) {
	if _, err := NewLogger("staging-eu", ""); err == nil {
		t.Fatal("expected error for unknown env")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger("local", "loud"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx = With(ctx, zap.String("workspace_id", "ws-1"))
	FromContext(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["workspace_id"] != "ws-1" {
		t.Errorf("expected workspace_id field, got %v", entries[0].ContextMap())
	}
}

func TestComponent_NilLogger(t *testing.T) {
	if Component(nil, "indexer") == nil {
		t.Fatal("expected non-nil logger")
	}
}
