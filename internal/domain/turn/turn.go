package turn

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/view-avocats/assistant/internal/domain"
)

// Status marks whether an assistant turn carries a model reply or the fallback text.
type Status string

const (
	// StatusOK is a regular turn.
	StatusOK Status = "ok"
	// StatusFailed is an assistant turn that replaced a failed model call.
	StatusFailed Status = "failed"
)

// Turn is one message of a conversation (immutable value object).
type Turn struct {
	id        string
	role      domain.Role
	text      string
	status    Status
	createdAt time.Time
}

// NewUser validates and creates a visitor turn.
func NewUser(text string, maxChars int) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, domain.ErrEmptyMessage
	}
	if maxChars > 0 && len([]rune(text)) > maxChars {
		return Turn{}, fmt.Errorf("%w: max %d characters", domain.ErrMessageTooLong, maxChars)
	}
	return newTurn(domain.RoleUser, text, StatusOK), nil
}

// NewAssistant creates a model reply turn.
func NewAssistant(text string) Turn {
	return newTurn(domain.RoleAssistant, text, StatusOK)
}

// NewFallback creates an assistant turn standing in for a failed model call.
func NewFallback(text string) Turn {
	return newTurn(domain.RoleAssistant, text, StatusFailed)
}

// Reconstruct creates a Turn without validation (storage hydration).
func Reconstruct(id string, role domain.Role, text string, status Status, createdAt time.Time) Turn {
	return Turn{id: id, role: role, text: text, status: status, createdAt: createdAt}
}

func newTurn(role domain.Role, text string, status Status) Turn {
	return Turn{
		id:        uuid.NewString(),
		role:      role,
		text:      text,
		status:    status,
		createdAt: time.Now().UTC(),
	}
}

// ID returns the turn identifier.
func (t Turn) ID() string { return t.id }

// Role returns the author of the turn.
func (t Turn) Role() domain.Role { return t.role }

// Text returns the message text.
func (t Turn) Text() string { return t.text }

// Status returns the turn status.
func (t Turn) Status() Status { return t.status }

// Failed reports whether the turn replaced a failed model call.
func (t Turn) Failed() bool { return t.status == StatusFailed }

// CreatedAt returns the creation time (UTC).
func (t Turn) CreatedAt() time.Time { return t.createdAt }
