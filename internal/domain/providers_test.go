package domain

import (
	"context"
	"errors"
	"testing"
)

func recordingEmbedder(got *string, res EmbeddingResult, err error) EmbedderFunc {
	return func(_ context.Context, text string) (EmbeddingResult, error) {
		*got = text
		return res, err
	}
}

func TestWithInstruction(t *testing.T) {
	boom := errors.New("provider down")
	tests := []struct {
		name        string
		instruction string
		err         error
		wantText    string
	}{
		{"prefixes text", "query: ", nil, "query: ai tools"},
		{"empty instruction passes through", "", nil, "ai tools"},
		{"error keeps cause", "passage: ", boom, "passage: ai tools"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			e := WithInstruction(recordingEmbedder(&got, EmbeddingResult{Embedding: []float32{1, 2}}, tt.err), tt.instruction)

			res, err := e.Embed(context.Background(), "ai tools")
			if got != tt.wantText {
				t.Errorf("provider saw %q, want %q", got, tt.wantText)
			}
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected wrapped cause, got %v", err)
				}
				return
			}
			if err != nil || len(res.Embedding) != 2 {
				t.Fatalf("Embed() = %+v, %v", res, err)
			}
		})
	}
}
