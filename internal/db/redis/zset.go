package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/kailas-cloud/signalsearch/internal/db"
)

// ZIncrWithTTL increments member's score and sets a TTL on the set if it has none yet.
func (s *Store) ZIncrWithTTL(ctx context.Context, key, member string, delta float64, ttl time.Duration) error {
	res := s.client.DoMulti(ctx,
		s.b().Zincrby().Key(key).Increment(delta).Member(member).Build(),
		s.b().Expire().Key(key).Seconds(ttlSeconds(ttl)).Nx().Build(),
	)
	if err := res[0].Error(); err != nil {
		return &db.Error{Op: db.OpZIncrBy, Err: err}
	}
	if err := res[1].Error(); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

// ZTop returns the n highest-scored members, best first.
func (s *Store) ZTop(ctx context.Context, key string, n int) ([]db.RankedMember, error) {
	if n <= 0 {
		return nil, nil
	}
	cmd := s.b().Zrange().Key(key).Min("0").Max(strconv.Itoa(n - 1)).Rev().Withscores().Build()
	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}

	out := make([]db.RankedMember, len(scores))
	for i, z := range scores {
		out[i] = db.RankedMember{Member: z.Member, Score: z.Score}
	}
	return out, nil
}
