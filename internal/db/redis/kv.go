package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/view-avocats/assistant/internal/db"
)

// Get returns db.ErrKeyNotFound for a missing key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, wrap(db.OpGet, err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.exec(ctx, db.OpSet, s.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Build())
}

// SetWithTTL is SET ... EX.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.exec(ctx, db.OpSet, s.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build())
}

// IncrBy adds val to the integer at key, creating it at zero.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	return s.exec(ctx, db.OpIncrBy, s.client.B().Incrby().Key(key).Increment(val).Build())
}

// Expire sets a TTL in whole seconds. With nx the TTL is only set on keys without one.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	secs := s.client.B().Expire().Key(key).Seconds(int64(ttl.Seconds()))
	if nx {
		return s.exec(ctx, db.OpExpire, secs.Nx().Build())
	}
	return s.exec(ctx, db.OpExpire, secs.Build())
}

// Del ignores missing keys.
func (s *Store) Del(ctx context.Context, key string) error {
	return s.exec(ctx, db.OpDel, s.client.B().Del().Key(key).Build())
}
