// Package analytics holds per-workspace search usage records.
package analytics

// Event is one completed search.
type Event struct {
	Query     string
	Method    string
	Results   int
	LatencyMs int64
}

// QueryCount is a query with how many times it was searched.
type QueryCount struct {
	Query string
	Count int64
}

// Totals aggregates events over a range of days.
type Totals struct {
	Searches   int64
	Results    int64
	LatencyMs  int64
	Methods    map[string]int64
	TopQueries []QueryCount
}
