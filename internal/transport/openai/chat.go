package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/metrics"
)

// ChatConfig holds the chat-completion settings. Sampling parameters are fixed here.
type ChatConfig struct {
	Config
	Temperature float32
	MaxTokens   int
}

// ChatCompleter implements domain.ChatCompleter with the chat completions API.
type ChatCompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	provider    string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewChatCompleter creates a chat completer.
func NewChatCompleter(cfg *ChatConfig) *ChatCompleter {
	return &ChatCompleter{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		provider:    cfg.Provider,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
}

func toOpenAIRole(r domain.Role) string {
	switch r {
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// Complete sends the prompt and returns the first choice.
func (c *ChatCompleter) Complete(ctx context.Context, req domain.ChatRequest) (domain.Completion, error) {
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: toOpenAIRole(m.Role), Content: m.Content}
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		serr := parseAPIError(domain.ServiceChat, err)
		metrics.Chat.Failed(c.provider, c.model, domain.FailureReason(serr))
		c.logger.Warn("Chat API call failed",
			zap.String("provider", c.provider),
			zap.Duration("duration", duration),
			zap.Error(serr),
		)
		return domain.Completion{}, serr
	}
	if len(resp.Choices) == 0 {
		metrics.Chat.Failed(c.provider, c.model, "invalid_response")
		return domain.Completion{}, domain.NewServiceError(domain.ServiceChat, 0, "no choices in response")
	}

	metrics.Chat.Succeeded(c.provider, c.model, duration)
	metrics.Chat.Tokens(c.provider, c.model, "prompt", resp.Usage.PromptTokens)
	metrics.Chat.Tokens(c.provider, c.model, "completion", resp.Usage.CompletionTokens)

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return domain.Completion{
		Text:         resp.Choices[0].Message.Content,
		Model:        model,
		PromptTokens: resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *ChatCompleter) HealthCheck(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", parseAPIError(domain.ServiceChat, err))
	}
	return nil
}
