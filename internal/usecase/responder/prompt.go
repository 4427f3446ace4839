package responder

import (
	"strings"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/usecase/retrieval"
)

const contextSeparator = "\n\n---\n\n"

// BuildPrompt assembles the chat request: system prompt, then retrieved context
// (omitted without hits), then the question.
func BuildPrompt(systemPrompt, contextInstruction, question string, hits []retrieval.Hit) domain.ChatRequest {
	msgs := make([]domain.Message, 0, 3)
	if systemPrompt != "" {
		msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: systemPrompt})
	}

	if len(hits) > 0 {
		var b strings.Builder
		if contextInstruction != "" {
			b.WriteString(contextInstruction)
			b.WriteString("\n\n")
		}
		for i, h := range hits {
			if i > 0 {
				b.WriteString(contextSeparator)
			}
			b.WriteString(h.Chunk.Text())
		}
		msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: b.String()})
	}

	msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: question})
	return domain.ChatRequest{Messages: msgs}
}
