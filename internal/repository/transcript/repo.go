package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/turn"
)

var keyPrefix = domain.KeyPrefix + "transcript:"

// store is the consumer interface for transcripts (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...[]byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo appends conversation turns to one list per session.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a transcript repository. ttl <= 0 keeps transcripts forever.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

func key(sessionID string) string { return keyPrefix + sessionID }

// Append writes turns at the tail of the session transcript and refreshes its TTL.
func (r *Repo) Append(ctx context.Context, sessionID string, turns ...turn.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([][]byte, len(turns))
	for i, t := range turns {
		data, err := turnToJSON(t)
		if err != nil {
			return err
		}
		values[i] = data
	}

	k := key(sessionID)
	if err := r.store.RPush(ctx, k, values...); err != nil {
		return fmt.Errorf("append transcript %s: %w", sessionID, err)
	}
	if r.ttl > 0 {
		if err := r.store.Expire(ctx, k, r.ttl, false); err != nil {
			return fmt.Errorf("expire transcript %s: %w", sessionID, err)
		}
	}
	return nil
}

// Load returns the persisted transcript of a session, oldest first.
// An unknown session yields an empty slice.
func (r *Repo) Load(ctx context.Context, sessionID string) ([]turn.Turn, error) {
	items, err := r.store.LRange(ctx, key(sessionID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", sessionID, err)
	}
	turns := make([]turn.Turn, 0, len(items))
	for i, it := range items {
		t, err := turnFromJSON(it)
		if err != nil {
			return nil, fmt.Errorf("transcript %s entry %d: %w", sessionID, i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}
