package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()

	SearchDegradationsTotal.WithLabelValues("vector").Inc()
	if got := testutil.ToFloat64(SearchDegradationsTotal.WithLabelValues("vector")); got < 1 {
		t.Fatalf("expected degradation counted, got %v", got)
	}
}

func TestRegisterEmbeddingMetrics_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()

	EmbeddingCacheTotal.WithLabelValues("hit").Inc()
	if got := testutil.ToFloat64(EmbeddingCacheTotal.WithLabelValues("hit")); got < 1 {
		t.Fatalf("expected cache hit counted, got %v", got)
	}
}
