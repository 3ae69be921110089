// Package analytics keeps per-workspace search counters in day buckets.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/db"
	domanalytics "github.com/kailas-cloud/signalsearch/internal/domain/analytics"
)

const dayLayout = "20060102"

// topPerDay bounds how many members of each daily query set are merged.
const topPerDay = 50

// store is the consumer interface for analytics counters (ISP).
type store interface {
	IncrWithTTL(ctx context.Context, ttl time.Duration, incrs ...db.Incr) error
	MGetInt64(ctx context.Context, keys ...string) ([]int64, error)
	ZIncrWithTTL(ctx context.Context, key, member string, delta float64, ttl time.Duration) error
	ZTop(ctx context.Context, key string, n int) ([]db.RankedMember, error)
}

// Store implements search analytics on top of INCRBY/ZINCRBY with EXPIRE NX.
type Store struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates an analytics store. Day buckets expire after ttl.
func New(s store, prefix string, ttl time.Duration) *Store {
	return &Store{store: s, prefix: prefix, ttl: ttl}
}

// Record adds e to the bucket of day.
func (s *Store) Record(ctx context.Context, workspaceID uuid.UUID, day time.Time, e domanalytics.Event) error {
	base := s.bucket(workspaceID, day)

	err := s.store.IncrWithTTL(ctx, s.ttl,
		db.Incr{Key: base + "searches", By: 1},
		db.Incr{Key: base + "results", By: int64(e.Results)},
		db.Incr{Key: base + "latency_ms", By: e.LatencyMs},
		db.Incr{Key: base + "method:" + e.Method, By: 1},
	)
	if err != nil {
		return fmt.Errorf("analytics counters %s: %w", base, err)
	}

	if e.Query == "" {
		return nil
	}
	qkey := base + "queries"
	if err := s.store.ZIncrWithTTL(ctx, qkey, e.Query, 1, s.ttl); err != nil {
		return fmt.Errorf("analytics ZINCRBY %s: %w", qkey, err)
	}
	return nil
}

// Totals sums the buckets of the days days ending at until, inclusive.
// Method counts are read for the listed methods only.
func (s *Store) Totals(
	ctx context.Context, workspaceID uuid.UUID, until time.Time, days int, methods []string, topN int,
) (domanalytics.Totals, error) {
	t := domanalytics.Totals{Methods: make(map[string]int64, len(methods))}
	if days <= 0 {
		return t, nil
	}

	// Per day: searches, results, latency_ms, then one key per method.
	perDay := 3 + len(methods)
	bases := make([]string, days)
	keys := make([]string, 0, days*perDay)
	for i := range days {
		base := s.bucket(workspaceID, until.AddDate(0, 0, -i))
		bases[i] = base
		keys = append(keys, base+"searches", base+"results", base+"latency_ms")
		for _, m := range methods {
			keys = append(keys, base+"method:"+m)
		}
	}

	vals, err := s.store.MGetInt64(ctx, keys...)
	if err != nil {
		return domanalytics.Totals{}, fmt.Errorf("analytics MGET: %w", err)
	}
	if len(vals) != len(keys) {
		return domanalytics.Totals{}, fmt.Errorf("analytics MGET: got %d values for %d keys", len(vals), len(keys))
	}

	queries := make(map[string]float64)
	for i, base := range bases {
		row := vals[i*perDay : (i+1)*perDay]
		t.Searches += row[0]
		t.Results += row[1]
		t.LatencyMs += row[2]
		for j, m := range methods {
			t.Methods[m] += row[3+j]
		}

		top, err := s.store.ZTop(ctx, base+"queries", topPerDay)
		if err != nil {
			return domanalytics.Totals{}, fmt.Errorf("analytics ZRANGE %squeries: %w", base, err)
		}
		for _, m := range top {
			queries[m.Member] += m.Score
		}
	}

	t.TopQueries = topMembers(queries, topN)
	return t, nil
}

func (s *Store) bucket(workspaceID uuid.UUID, day time.Time) string {
	return s.prefix + "analytics:" + workspaceID.String() + ":" + day.UTC().Format(dayLayout) + ":"
}

// topMembers orders by score desc, then member asc.
func topMembers(scores map[string]float64, n int) []domanalytics.QueryCount {
	out := make([]domanalytics.QueryCount, 0, len(scores))
	for m, s := range scores {
		out = append(out, domanalytics.QueryCount{Query: m, Count: int64(s)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
