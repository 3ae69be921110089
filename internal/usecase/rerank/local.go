// Package rerank provides the reranker providers used by the search pipeline.
package rerank

import (
	"context"
	"strings"
	"unicode"
)

// Local scores texts by query token overlap. It needs no model and never fails,
// which makes it the default when no cross-encoder is deployed.
type Local struct{}

// NewLocal creates a token overlap reranker.
func NewLocal() *Local { return &Local{} }

// ScoreBatch returns 0.8 × token overlap + 0.2 × exact phrase hit, in [0,1].
func (Local) ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTokens := tokenSet(query)
	phrase := strings.ToLower(strings.TrimSpace(query))

	scores := make([]float64, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		score := 0.8 * overlap(queryTokens, tokenSet(lower))
		if phrase != "" && strings.Contains(lower, phrase) {
			score += 0.2
		}
		scores[i] = score
	}
	return scores, nil
}

// overlap is the share of query tokens present in text.
func overlap(query, text map[string]struct{}) float64 {
	if len(query) == 0 || len(text) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := text[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
