package responder

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/logger"
	"github.com/view-avocats/assistant/internal/usecase/retrieval"
)

// Status of a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Usage reports the tokens of the chat call.
type Usage struct {
	PromptTokens int
	OutputTokens int
}

// Result is the outcome of one question. It never carries a Go error:
// failures are logged and turned into StatusError with a user-facing Message.
type Result struct {
	Status  Status
	Text    string
	Message string
	Usage   Usage
	Sources []int // chunk indexes used as context
}

// OK reports whether the result carries a model answer.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Config holds the prompt settings, fixed for the service lifetime.
type Config struct {
	SystemPrompt       string
	ContextInstruction string
	// ErrorMessage is the user-facing text of a failed result.
	ErrorMessage string
	// TopK is the number of chunks retrieved by Answer.
	TopK int
}

// Service turns questions into model answers.
type Service struct {
	chat      domain.ChatCompleter
	retriever Retriever
	cfg       Config
	logger    *zap.Logger
}

// New creates a responder. retriever may be nil (no knowledge base).
func New(chat domain.ChatCompleter, retriever Retriever, cfg Config, logger *zap.Logger) *Service {
	return &Service{chat: chat, retriever: retriever, cfg: cfg, logger: logger}
}

// Respond asks the chat model, with hits as context.
func (s *Service) Respond(ctx context.Context, question string, hits []retrieval.Hit) Result {
	req := BuildPrompt(s.cfg.SystemPrompt, s.cfg.ContextInstruction, question, hits)

	sources := make([]int, len(hits))
	for i, h := range hits {
		sources[i] = h.Chunk.Index()
	}

	completion, err := s.chat.Complete(ctx, req)
	if err == nil && strings.TrimSpace(completion.Text) == "" {
		err = domain.NewServiceError(domain.ServiceChat, 0, "empty completion")
	}
	if err != nil {
		s.log(ctx).Error("Chat completion failed",
			zap.Int("context_chunks", len(hits)),
			zap.Error(err),
		)
		return s.failure(sources)
	}

	s.log(ctx).Info("Chat completion succeeded",
		zap.String("model", completion.Model),
		zap.Int("context_chunks", len(hits)),
		zap.Int("prompt_tokens", completion.PromptTokens),
		zap.Int("output_tokens", completion.OutputTokens),
	)

	return Result{
		Status:  StatusSuccess,
		Text:    completion.Text,
		Usage:   Usage{PromptTokens: completion.PromptTokens, OutputTokens: completion.OutputTokens},
		Sources: sources,
	}
}

// Answer runs the whole path: retrieve context, then Respond.
// A retrieval failure yields a failed result without calling the chat model.
func (s *Service) Answer(ctx context.Context, question string) Result {
	if s.retriever == nil {
		return s.Respond(ctx, question, nil)
	}

	hits, err := s.retriever.Query(ctx, question, s.cfg.TopK)
	if err != nil {
		level := zap.ErrorLevel
		if errors.Is(err, domain.ErrIndexNotBuilt) {
			level = zap.WarnLevel
		}
		s.log(ctx).Log(level, "Knowledge retrieval failed", zap.Error(err))
		return s.failure(nil)
	}

	return s.Respond(ctx, question, hits)
}

func (s *Service) failure(sources []int) Result {
	return Result{Status: StatusError, Message: s.cfg.ErrorMessage, Sources: sources}
}

// log prefers the request-scoped logger (carries request_id).
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
