package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search pipeline Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method"},
	)

	SearchDegradationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_degradations_total",
			Help:      "Searches that lost a pipeline stage",
		},
		[]string{"stage"},
	)

	SearchTotalFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total_retrieval_failures_total",
			Help:      "Searches where every retrieval method failed",
		},
	)

	RerankTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_total",
			Help:      "Rerank passes by outcome",
		},
		[]string{"outcome"}, // "applied" / "skipped" / "failed"
	)

	EnrichmentDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_dropped_total",
			Help:      "Candidates dropped because the document store had no record",
		},
	)

	IndexOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_operations_total",
			Help:      "Indexer operations by status",
		},
		[]string{"op", "status"},
	)
)

var registerSearch sync.Once

// RegisterSearchMetrics registers the search pipeline metrics with the default registry.
// Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearch.Do(func() {
		prometheus.MustRegister(
			SearchDuration,
			SearchDegradationsTotal,
			SearchTotalFailuresTotal,
			RerankTotal,
			EnrichmentDroppedTotal,
			IndexOperationsTotal,
		)
	})
}
