package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/signalsearch/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value with no expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// IncrWithTTL applies every increment and gives each counter a TTL if it has none yet.
// All commands go out in a single pipeline.
func (s *Store) IncrWithTTL(ctx context.Context, ttl time.Duration, incrs ...db.Incr) error {
	if len(incrs) == 0 {
		return nil
	}
	secs := ttlSeconds(ttl)
	cmds := make(rueidis.Commands, 0, 2*len(incrs))
	for _, in := range incrs {
		cmds = append(cmds,
			s.b().Incrby().Key(in.Key).Increment(in.By).Build(),
			s.b().Expire().Key(in.Key).Seconds(secs).Nx().Build(),
		)
	}
	for i, r := range s.client.DoMulti(ctx, cmds...) {
		if err := r.Error(); err != nil {
			op := db.OpIncrBy
			if i%2 == 1 {
				op = db.OpExpire
			}
			return &db.Error{Op: op, Err: err}
		}
	}
	return nil
}

// MGetInt64 reads integer counters in one MGET. Missing keys read as 0.
func (s *Store) MGetInt64(ctx context.Context, keys ...string) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmd := s.b().Mget().Key(keys...).Build()
	vals, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}

	out := make([]int64, len(keys))
	for i := range vals {
		if i >= len(out) {
			break
		}
		raw, err := vals[i].ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
		if out[i], err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
	}
	return out, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	if secs := int64(ttl / time.Second); secs > 0 {
		return secs
	}
	return 1
}
