package domain

import "context"

// Role is the author of a chat message.
type Role string

const (
	// RoleSystem carries instructions for the model.
	RoleSystem Role = "system"
	// RoleUser carries text typed by the visitor.
	RoleUser Role = "user"
	// RoleAssistant carries model replies.
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat-completion prompt.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest is an ordered prompt sent to a chat-completion service.
// Sampling parameters are owned by the completer and fixed at construction.
type ChatRequest struct {
	Messages []Message
}

// Completion is the top response of a chat-completion call.
type Completion struct {
	Text         string
	Model        string
	PromptTokens int
	OutputTokens int
}

// ChatCompleter sends a prompt to an external chat-completion service.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (Completion, error)
}
