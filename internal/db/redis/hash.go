package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/signalsearch/internal/db"
)

// HReplace writes fields and removes the drop fields from the hash at key in one
// MULTI/EXEC transaction, so readers never see a partially replaced hash.
// It reports whether the key was created.
func (s *Store) HReplace(ctx context.Context, key string, fields map[string]string, drop []string) (bool, error) {
	if len(fields) == 0 {
		return false, &db.Error{Op: db.OpHSet, Err: errEmptyHash}
	}

	hset := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		hset = hset.FieldValue(k, v)
	}
	cmds := rueidis.Commands{
		s.b().Multi().Build(),
		s.b().Exists().Key(key).Build(),
		hset.Build(),
	}
	if len(drop) > 0 {
		cmds = append(cmds, s.b().Hdel().Key(key).Field(drop...).Build())
	}
	cmds = append(cmds, s.b().Exec().Build())

	res := s.client.DoMulti(ctx, cmds...)
	for _, r := range res[:len(res)-1] {
		if err := r.Error(); err != nil {
			return false, &db.Error{Op: db.OpHSet, Err: err}
		}
	}
	replies, err := res[len(res)-1].ToArray()
	if err != nil {
		return false, &db.Error{Op: db.OpHSet, Err: err}
	}
	if len(replies) != len(cmds)-2 {
		return false, &db.Error{Op: db.OpHSet, Err: errTxAborted}
	}

	existed, err := replies[0].AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	if err := replies[1].Error(); err != nil {
		return false, &db.Error{Op: db.OpHSet, Err: err}
	}
	if len(replies) > 2 {
		if err := replies[2].Error(); err != nil {
			return false, &db.Error{Op: db.OpHDel, Err: err}
		}
	}
	return existed == 0, nil
}

// HGetAll returns all fields of a hash, or db.ErrKeyNotFound when the key is absent.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	if len(m) == 0 {
		return nil, db.ErrKeyNotFound
	}
	return m, nil
}

// Del deletes key and reports whether it existed.
func (s *Store) Del(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Del().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpDel, Err: err}
	}
	return n > 0, nil
}
