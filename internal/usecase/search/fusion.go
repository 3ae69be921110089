package search

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/request"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
)

// maxScore returns the highest raw score, 0 for an empty list.
func maxScore(hits []result.Hit) float64 {
	var m float64
	for _, h := range hits {
		m = max(m, h.Score)
	}
	return m
}

// normalized divides by the method's max score. A non-positive max zeroes every member.
func normalized(raw, maxRaw float64) float64 {
	if maxRaw <= 0 {
		return 0
	}
	return raw / maxRaw
}

// fuse merges lexical and vector hits by signal id and ranks them by the weighted sum
// of the max-normalized scores. Ties keep insertion order: lexical hits first, then
// vector-only additions. With deterministicTies, equal scores fall back to signal id.
// The output is truncated to limit and Final starts equal to Combined.
func fuse(lexical, vector []result.Hit, w request.Weights, limit int, deterministicTies bool) []result.Candidate {
	cands := make([]result.Candidate, 0, len(lexical)+len(vector))
	pos := make(map[uuid.UUID]int, len(lexical)+len(vector))

	maxLex := maxScore(lexical)
	for _, h := range lexical {
		if _, dup := pos[h.SignalID]; dup {
			continue
		}
		raw := h.Score
		pos[h.SignalID] = len(cands)
		cands = append(cands, result.Candidate{
			SignalID:          h.SignalID,
			RawLexical:        &raw,
			NormalizedLexical: normalized(raw, maxLex),
			Method:            mode.BM25,
		})
	}

	maxVec := maxScore(vector)
	for _, h := range vector {
		raw := h.Score
		if i, ok := pos[h.SignalID]; ok {
			c := &cands[i]
			if c.RawVector != nil {
				continue
			}
			c.RawVector = &raw
			c.NormalizedVector = normalized(raw, maxVec)
			c.Method = c.Method.Combine(mode.Vector)
			continue
		}
		pos[h.SignalID] = len(cands)
		cands = append(cands, result.Candidate{
			SignalID:         h.SignalID,
			RawVector:        &raw,
			NormalizedVector: normalized(raw, maxVec),
			Method:           mode.Vector,
		})
	}

	for i := range cands {
		c := &cands[i]
		c.Combined = c.NormalizedLexical*w.BM25 + c.NormalizedVector*w.Vector
		c.Final = c.Combined
	}

	sortCandidates(cands, func(c *result.Candidate) float64 { return c.Combined }, deterministicTies)

	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}

// sortCandidates orders by score descending. The sort is stable.
func sortCandidates(cands []result.Candidate, score func(*result.Candidate) float64, deterministicTies bool) {
	slices.SortStableFunc(cands, func(a, b result.Candidate) int {
		sa, sb := score(&a), score(&b)
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		}
		if deterministicTies {
			return strings.Compare(a.SignalID.String(), b.SignalID.String())
		}
		return 0
	})
}
