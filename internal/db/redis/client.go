// Package redis implements db.Store on Redis (or any RESP-compatible server) via rueidis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/view-avocats/assistant/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	clientName    = "view-avocats-assistant"
	readyInterval = 100 * time.Millisecond
)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store holds the rueidis client. Client-side caching is disabled.
type Store struct {
	client rueidis.Client
}

// NewStore connects to the configured addresses.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   clientName,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client}, nil
}

// Ping sends PING.
func (s *Store) Ping(ctx context.Context) error {
	return s.exec(ctx, db.OpPing, s.client.B().Ping().Build())
}

// Close releases the connections.
func (s *Store) Close() { s.client.Close() }

// WaitForReady pings until the server answers or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w (last error: %v)", timeout, ctx.Err(), err)
		case <-time.After(readyInterval):
		}
	}
}

// exec runs a command whose reply only matters for its error.
func (s *Store) exec(ctx context.Context, op string, cmd rueidis.Completed) error {
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return wrap(op, err)
	}
	return nil
}

// wrap attaches the command name and maps WRONGTYPE replies to db.ErrWrongType.
func wrap(op string, err error) error {
	if isWrongType(err) {
		err = fmt.Errorf("%w: %s", db.ErrWrongType, err.Error())
	}
	return &db.Error{Op: op, Err: err}
}

func isWrongType(err error) bool {
	re, ok := rueidis.IsRedisErr(err)
	return ok && strings.HasPrefix(strings.ToUpper(re.Error()), "WRONGTYPE")
}
