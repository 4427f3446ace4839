package chi

import (
	"context"

	"github.com/view-avocats/assistant/internal/usecase/conversation"
	"github.com/view-avocats/assistant/internal/usecase/embedding"
	"github.com/view-avocats/assistant/internal/usecase/health"
	"github.com/view-avocats/assistant/internal/usecase/responder"
	"github.com/view-avocats/assistant/internal/usecase/retrieval"
	"github.com/view-avocats/assistant/internal/usecase/usage"
)

// Answerer answers a single stateless question.
type Answerer interface {
	Answer(ctx context.Context, question string) responder.Result
}

// Sessions manages widget conversations.
type Sessions interface {
	Start() (string, error)
	End(id string) error
	Transcript(id string) (conversation.Snapshot, error)
	Submit(ctx context.Context, id, text string) (conversation.Exchange, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// IndexStats reports the published knowledge index.
type IndexStats interface {
	Stats() retrieval.Stats
}

// UsageReporter reports embedding token consumption.
type UsageReporter interface {
	GetReport(ctx context.Context, period embedding.Period) usage.Report
}
