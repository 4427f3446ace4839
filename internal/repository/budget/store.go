// Package budget persists the embedding token counters so limits survive restarts.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/view-avocats/assistant/internal/db"
)

type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Counters stores one integer per budget window key.
type Counters struct {
	kv kv
}

// New wraps a db store.
func New(s kv) *Counters {
	return &Counters{kv: s}
}

// IncrBy adds val to the window counter. A positive ttl is applied with EXPIRE NX,
// so it is fixed by the first write of the window and later writes keep it.
func (c *Counters) IncrBy(ctx context.Context, key string, val int64, ttl time.Duration) error {
	if err := c.kv.IncrBy(ctx, key, val); err != nil {
		return counterErr("incr", key, err)
	}
	if ttl > 0 {
		if err := c.kv.Expire(ctx, key, ttl, true); err != nil {
			return counterErr("expire", key, err)
		}
	}
	return nil
}

// Get reads the window counter. A window nobody wrote to yet counts as zero.
func (c *Counters) Get(ctx context.Context, key string) (int64, error) {
	raw, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return 0, nil
	case err != nil:
		return 0, counterErr("get", key, err)
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, counterErr("parse", key, err)
	}
	return n, nil
}

func counterErr(op, key string, err error) error {
	return fmt.Errorf("budget counter %s %s: %w", op, key, err)
}
