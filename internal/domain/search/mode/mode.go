// Package mode names the retrieval methods that produced a candidate and the
// pipeline views reported in a search response.
package mode

// Method tags which retrieval method(s) produced a candidate.
type Method string

// Candidate method tags.
const (
	BM25   Method = "bm25"
	Vector Method = "vector"
	// Hybrid means the candidate was returned by both retrieval methods.
	Hybrid Method = "hybrid"
)

// IsValid checks if the method is one of the supported values.
func (m Method) IsValid() bool {
	return m == BM25 || m == Vector || m == Hybrid
}

// Combine returns the tag for a candidate seen by both m and other.
func (m Method) Combine(other Method) Method {
	if m == "" {
		return other
	}
	if other == "" || m == other {
		return m
	}
	return Hybrid
}

// View is the response-level method of a search.
type View string

// Response methods.
const (
	ViewHybrid     View = "hybrid"
	ViewTrend      View = "trend_analysis"
	ViewWhitespace View = "whitespace_analysis"
)
