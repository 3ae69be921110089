package redis

import (
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/signalsearch/internal/db"
)

// parseReply decodes an FT.SEARCH array reply: the total, then per document its key,
// its score when withScores is set, and its field/value list. Malformed entries are skipped.
func parseReply(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	total, err := replyTotal(raw)
	if err != nil || total == 0 {
		return &db.SearchResult{}, err
	}

	stride := 2
	if withScores {
		stride = 3
	}
	entries := make([]db.SearchEntry, 0, min(int(total), len(raw)/stride))
	for i := 1; i+stride-1 < len(raw); i += stride {
		e, ok := replyEntry(raw[i:i+stride], withScores)
		if ok {
			entries = append(entries, e)
		}
	}
	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func replyTotal(raw []rueidis.RedisMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse total: %w", err)
	}
	return total, nil
}

func replyEntry(chunk []rueidis.RedisMessage, withScores bool) (db.SearchEntry, bool) {
	var e db.SearchEntry
	key, err := chunk[0].ToString()
	if err != nil {
		return e, false
	}
	e.Key = key

	if withScores {
		s, err := chunk[1].ToString()
		if err != nil {
			return e, false
		}
		if e.Score, err = strconv.ParseFloat(s, 64); err != nil {
			return e, false
		}
	}

	pairs, err := chunk[len(chunk)-1].ToArray()
	if err != nil {
		return e, false
	}
	e.Fields = make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, nerr := pairs[j].ToString()
		value, verr := pairs[j+1].ToString()
		if nerr == nil && verr == nil {
			e.Fields[name] = value
		}
	}
	return e, true
}
