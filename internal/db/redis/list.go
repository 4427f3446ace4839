package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/view-avocats/assistant/internal/db"
)

// RPush appends values to the list at key.
func (s *Store) RPush(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	elems := make([]string, len(values))
	for i, v := range values {
		elems[i] = rueidis.BinaryString(v)
	}
	return s.exec(ctx, db.OpRPush, s.client.B().Rpush().Key(key).Element(elems...).Build())
}

// LRange returns list elements between start and stop (inclusive, negative indexes count from the tail).
// A missing key yields an empty slice.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	items, err := s.client.Do(ctx, s.client.B().Lrange().Key(key).Start(start).Stop(stop).Build()).AsStrSlice()
	if err != nil {
		return nil, wrap(db.OpLRange, err)
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = []byte(it)
	}
	return out, nil
}
