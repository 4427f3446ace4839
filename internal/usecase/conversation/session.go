package conversation

import (
	"slices"
	"sync"
	"time"

	"github.com/view-avocats/assistant/internal/domain/turn"
)

// State of a session.
type State string

const (
	// StateIdle accepts a new submission.
	StateIdle State = "idle"
	// StateSending has a request in flight; submissions are rejected.
	StateSending State = "sending"
)

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID         string
	State      State
	Turns      []turn.Turn
	CreatedAt  time.Time
	LastActive time.Time
}

// session is mutable state guarded by mu. A closed session drops results that arrive late.
type session struct {
	mu         sync.Mutex
	id         string
	busy       bool
	closed     bool
	turns      []turn.Turn
	createdAt  time.Time
	lastActive time.Time
}

// snapshot copies the session; caller holds mu.
func (s *session) snapshot() Snapshot {
	state := StateIdle
	if s.busy {
		state = StateSending
	}
	return Snapshot{
		ID:         s.id,
		State:      state,
		Turns:      slices.Clone(s.turns),
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
	}
}
