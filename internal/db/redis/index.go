package redis

import (
	"context"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/signalsearch/internal/db"
)

// CreateIndex runs FT.CREATE for def.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := def.Args()
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index. Documents are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isUnknownIndex(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexInfo reads document count and backfill progress from FT.INFO.
func (s *Store) IndexInfo(ctx context.Context, name string) (db.IndexInfo, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	m, err := s.do(ctx, cmd).AsMap()
	if err != nil {
		if isUnknownIndex(err) {
			return db.IndexInfo{}, db.ErrIndexNotFound
		}
		return db.IndexInfo{}, &db.Error{Op: db.OpIndexInfo, Err: err}
	}

	info := db.IndexInfo{Name: name, PercentIndexed: 1}
	if v, ok := m["num_docs"]; ok {
		info.NumDocs = int64(numeric(&v))
	}
	if v, ok := m["indexing"]; ok {
		info.Indexing = numeric(&v) != 0
	}
	if v, ok := m["percent_indexed"]; ok {
		info.PercentIndexed = numeric(&v)
	}
	return info, nil
}

// isUnknownIndex matches the missing-index replies of Redis and Valkey.
func isUnknownIndex(err error) bool {
	return isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index")
}

// numeric reads an FT.INFO value, which RESP2 sends as a string and RESP3 as a number.
func numeric(m *rueidis.RedisMessage) float64 {
	if m.IsInt64() {
		v, _ := m.AsInt64()
		return float64(v)
	}
	if m.IsFloat64() {
		v, _ := m.AsFloat64()
		return v
	}
	raw, err := m.ToString()
	if err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}
