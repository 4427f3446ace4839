package conversation

import (
	"context"

	"github.com/view-avocats/assistant/internal/domain/turn"
	"github.com/view-avocats/assistant/internal/usecase/responder"
)

// Responder answers one question.
type Responder interface {
	Answer(ctx context.Context, question string) responder.Result
}

// Renderer receives the full turn sequence after each change.
type Renderer interface {
	Render(sessionID string, turns []turn.Turn)
}

// TranscriptWriter persists completed exchanges.
type TranscriptWriter interface {
	Append(ctx context.Context, sessionID string, turns ...turn.Turn) error
}
