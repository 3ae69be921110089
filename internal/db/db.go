package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
)

// Store is the Redis Query Engine facade used by the signalsearch repositories.
//
//nolint:interfacebloat // facade; consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	HashStore
	KVStore
	RankStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based document operations.
type HashStore interface {
	HReplace(ctx context.Context, key string, fields map[string]string, drop []string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) (bool, error)
}

// Incr is one counter increment.
type Incr struct {
	Key string
	By  int64
}

// KVStore provides key-value blobs and counters.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrWithTTL(ctx context.Context, ttl time.Duration, incrs ...Incr) error
	MGetInt64(ctx context.Context, keys ...string) ([]int64, error)
}

// RankedMember is a sorted set member with its score.
type RankedMember struct {
	Member string
	Score  float64
}

// RankStore provides sorted set counters.
type RankStore interface {
	ZIncrWithTTL(ctx context.Context, key, member string, delta float64, ttl time.Duration) error
	ZTop(ctx context.Context, key string, n int) ([]RankedMember, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexInfo(ctx context.Context, name string) (IndexInfo, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error)
}
