// Package memory is a process-local db.Store used when no Redis is configured
// (local development, the CLI, tests). Data is lost on exit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/view-avocats/assistant/internal/db"
)

var _ db.Store = (*Store)(nil)

type entry struct {
	value  []byte
	list   [][]byte
	isList bool
	expiry time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiry.IsZero() && !now.Before(e.expiry)
}

// Store keeps keys in a map guarded by a mutex. Expiry is lazy.
type Store struct {
	mu   sync.Mutex
	data map[string]*entry
	now  func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string]*entry), now: time.Now}
}

// lookup returns a live entry; caller holds mu.
func (s *Store) lookup(key string) *entry {
	e, ok := s.data[key]
	if !ok {
		return nil
	}
	if e.expired(s.now()) {
		delete(s.data, key)
		return nil
	}
	return e
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all data.
func (s *Store) Close() {
	s.mu.Lock()
	s.data = make(map[string]*entry)
	s.mu.Unlock()
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		return nil, db.ErrKeyNotFound
	}
	if e.isList {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrWrongType}
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a value and clears any TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value with an expiration (ttl <= 0 means none).
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiry = s.now().Add(ttl)
	}
	s.data[key] = e
	return nil
}

// IncrBy increments an integer value, creating it at zero when missing.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		e = &entry{}
		s.data[key] = e
	}
	if e.isList {
		return &db.Error{Op: db.OpIncrBy, Err: db.ErrWrongType}
	}
	var cur int64
	if len(e.value) > 0 {
		n, err := parseInt(e.value)
		if err != nil {
			return &db.Error{Op: db.OpIncrBy, Err: err}
		}
		cur = n
	}
	e.value = formatInt(cur + val)
	return nil
}

// Expire sets TTL on a key. With nx, only keys without an expiry are touched.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		return nil
	}
	if nx && !e.expiry.IsZero() {
		return nil
	}
	e.expiry = s.now().Add(ttl)
	return nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// RPush appends values to the list at key.
func (s *Store) RPush(_ context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		e = &entry{isList: true}
		s.data[key] = e
	}
	if !e.isList {
		return &db.Error{Op: db.OpRPush, Err: db.ErrWrongType}
	}
	for _, v := range values {
		e.list = append(e.list, append([]byte(nil), v...))
	}
	return nil
}

// LRange follows Redis LRANGE index semantics.
func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		return [][]byte{}, nil
	}
	if !e.isList {
		return nil, &db.Error{Op: db.OpLRange, Err: db.ErrWrongType}
	}

	n := int64(len(e.list))
	if start < 0 {
		start = max(n+start, 0)
	}
	if stop < 0 {
		stop = n + stop
	}
	stop = min(stop, n-1)
	if start > stop {
		return [][]byte{}, nil
	}

	out := make([][]byte, 0, stop-start+1)
	for _, v := range e.list[start : stop+1] {
		out = append(out, append([]byte(nil), v...))
	}
	return out, nil
}
