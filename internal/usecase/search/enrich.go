package search

import (
	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain/search/result"
	"github.com/kailas-cloud/signalsearch/internal/domain/signal"
	"github.com/kailas-cloud/signalsearch/internal/metrics"
)

// enrich attaches each candidate's signal record and score breakdown, keeping input order.
// Candidates without a record are dropped.
func enrich(cands []result.Candidate, byID map[uuid.UUID]*signal.Signal) []result.Result {
	out := make([]result.Result, 0, len(cands))
	for i := range cands {
		c := &cands[i]
		sig, ok := byID[c.SignalID]
		if !ok {
			metrics.EnrichmentDroppedTotal.Inc()
			continue
		}
		out = append(out, result.Result{
			Signal:    *sig,
			Score:     c.Final,
			Method:    c.Method,
			Breakdown: c.Breakdown(),
		})
	}
	return out
}

// candidateIDs returns the signal ids in candidate order.
func candidateIDs(cands []result.Candidate) []uuid.UUID {
	ids := make([]uuid.UUID, len(cands))
	for i := range cands {
		ids[i] = cands[i].SignalID
	}
	return ids
}

// rerankTexts returns title + content for every candidate, empty when the record is missing.
func rerankTexts(cands []result.Candidate, byID map[uuid.UUID]*signal.Signal) []string {
	texts := make([]string, len(cands))
	for i := range cands {
		if sig, ok := byID[cands[i].SignalID]; ok {
			texts[i] = sig.Text()
		}
	}
	return texts
}

func indexSignals(signals []signal.Signal) map[uuid.UUID]*signal.Signal {
	byID := make(map[uuid.UUID]*signal.Signal, len(signals))
	for i := range signals {
		byID[signals[i].ID] = &signals[i]
	}
	return byID
}
