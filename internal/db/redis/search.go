package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/signalsearch/internal/db"
	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
)

// DefaultVectorField is the KNN target when KNNQuery.Field is empty.
const DefaultVectorField = "embedding"

const (
	vectorScoreField = "__vector_score"
	dialect          = "2"
)

var (
	errNoIndex  = errors.New("index name is required")
	errNoVector = errors.New("vector is required")
	errNoQuery  = errors.New("query is required")
	errNoLimit  = errors.New("result limit must be positive")
)

// SearchKNN runs an HNSW nearest-neighbour query. Scores are cosine similarities
// clamped to [0,1].
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errNoIndex
	case len(q.Vector) == 0:
		return nil, errNoVector
	case q.K <= 0:
		return nil, errNoLimit
	}

	field := q.Field
	if field == "" {
		field = DefaultVectorField
	}
	k := strconv.Itoa(q.K)

	query := "*"
	if pre := buildFilter(q.Filters); pre != "" {
		query = "(" + pre + ")"
	}
	query += "=>[KNN " + k + " @" + field + " $BLOB AS " + vectorScoreField + "]"

	args := withReturn([]string{q.IndexName, query}, q.ReturnFields, vectorScoreField)
	args = append(args,
		"SORTBY", vectorScoreField,
		"LIMIT", "0", k,
		"PARAMS", "2", "BLOB", rueidis.VectorString32(q.Vector),
		"DIALECT", dialect,
	)

	raw, err := s.ftSearch(ctx, args)
	if err != nil {
		return nil, err
	}
	res, err := parseReply(raw, false)
	if err != nil {
		return nil, err
	}
	for i := range res.Entries {
		e := &res.Entries[i]
		if d, err := strconv.ParseFloat(e.Fields[vectorScoreField], 64); err == nil {
			e.Score = max(0, 1-d)
		}
		delete(e.Fields, vectorScoreField)
	}
	return res, nil
}

// SearchText runs a BM25STD full-text query. Terms are ORed; a query with no
// searchable terms returns an empty result without touching Redis.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	switch {
	case q.IndexName == "":
		return nil, errNoIndex
	case strings.TrimSpace(q.Query) == "":
		return nil, errNoQuery
	case q.TopK <= 0:
		return nil, errNoLimit
	}

	clause := textClause(q.Query, q.Fields, q.Fuzzy)
	if clause == "" {
		return &db.SearchResult{}, nil
	}
	if pre := buildFilter(q.Filters); pre != "" {
		clause = pre + " " + clause
	}

	args := withReturn([]string{q.IndexName, clause}, q.ReturnFields)
	args = append(args,
		"SCORER", "BM25STD",
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", dialect,
	)

	raw, err := s.ftSearch(ctx, args)
	if err != nil {
		return nil, err
	}
	return parseReply(raw, true)
}

// SearchCount returns how many documents match filters.
func (s *Store) SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error) {
	query := buildFilter(filters)
	if query == "" {
		query = "*"
	}
	raw, err := s.ftSearch(ctx, []string{index, query, "LIMIT", "0", "0", "DIALECT", dialect})
	if err != nil {
		return 0, err
	}
	total, err := replyTotal(raw)
	return int(total), err
}

func (s *Store) ftSearch(ctx context.Context, args []string) ([]rueidis.RedisMessage, error) {
	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return raw, nil
}

func withReturn(args, fields []string, extra ...string) []string {
	if len(fields) == 0 {
		return args
	}
	args = append(args, "RETURN", strconv.Itoa(len(fields)+len(extra)))
	args = append(args, fields...)
	return append(args, extra...)
}
