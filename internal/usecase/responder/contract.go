package responder

import (
	"context"

	"github.com/view-avocats/assistant/internal/usecase/retrieval"
)

// Retriever finds the chunks most relevant to a question.
type Retriever interface {
	Query(ctx context.Context, question string, k int) ([]retrieval.Hit, error)
}
