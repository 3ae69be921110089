package mode

import "testing"

func TestIsValid(t *testing.T) {
	for _, m := range []Method{BM25, Vector, Hybrid} {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}
	for _, m := range []Method{"", "semantic", "keyword", "HYBRID"} {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		a, b, want Method
	}{
		{"", BM25, BM25},
		{BM25, "", BM25},
		{BM25, BM25, BM25},
		{BM25, Vector, Hybrid},
		{Vector, BM25, Hybrid},
		{Hybrid, Vector, Hybrid},
	}
	for _, tt := range tests {
		if got := tt.a.Combine(tt.b); got != tt.want {
			t.Errorf("%q.Combine(%q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestViews(t *testing.T) {
	if ViewHybrid != "hybrid" || ViewTrend != "trend_analysis" || ViewWhitespace != "whitespace_analysis" {
		t.Error("unexpected view constants")
	}
}
