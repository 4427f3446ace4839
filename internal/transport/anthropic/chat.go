// Package anthropic adapts the Anthropic Messages API to domain.ChatCompleter.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/metrics"
)

const provider = "anthropic"

// Config holds the Anthropic chat settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// ChatCompleter implements domain.ChatCompleter via Messages.New.
type ChatCompleter struct {
	client      anthropicsdk.Client
	model       string
	temperature float64
	maxTokens   int64
	timeout     time.Duration
	logger      *zap.Logger
}

// NewChatCompleter creates a chat completer. Returns an error if the API key is missing.
func NewChatCompleter(cfg Config) (*ChatCompleter, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigError("chat.api_key", "is required for the anthropic provider")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 500
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChatCompleter{
		client:      anthropicsdk.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
	}, nil
}

// buildParams moves system messages into the System field; the rest become user/assistant turns.
func (c *ChatCompleter) buildParams(req domain.ChatRequest) anthropicsdk.MessageNewParams {
	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropicsdk.Float(c.temperature),
	}
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			params.System = append(params.System, anthropicsdk.TextBlockParam{Text: m.Content})
		case domain.RoleAssistant:
			params.Messages = append(params.Messages, anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(m.Content)))
		}
	}
	return params
}

// Complete sends the prompt and concatenates the text blocks of the reply.
func (c *ChatCompleter) Complete(ctx context.Context, req domain.ChatRequest) (domain.Completion, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, c.buildParams(req))
	duration := time.Since(start)
	if err != nil {
		serr := toServiceError(err)
		metrics.Chat.Failed(provider, c.model, domain.FailureReason(serr))
		c.logger.Warn("Chat API call failed",
			zap.String("provider", provider),
			zap.Duration("duration", duration),
			zap.Error(serr),
		)
		return domain.Completion{}, serr
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	metrics.Chat.Succeeded(provider, c.model, duration)
	metrics.Chat.Tokens(provider, c.model, "prompt", int(msg.Usage.InputTokens))
	metrics.Chat.Tokens(provider, c.model, "completion", int(msg.Usage.OutputTokens))

	model := string(msg.Model)
	if model == "" {
		model = c.model
	}
	return domain.Completion{
		Text:         b.String(),
		Model:        model,
		PromptTokens: int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (c *ChatCompleter) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx, anthropicsdk.ModelListParams{}); err != nil {
		return fmt.Errorf("list models: %w", toServiceError(err))
	}
	return nil
}

func toServiceError(err error) error {
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		return domain.NewServiceError(domain.ServiceChat, apiErr.StatusCode, apiErr.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewServiceError(domain.ServiceChat, 0, "request timed out")
	}
	return domain.NewServiceError(domain.ServiceChat, 0, err.Error())
}
