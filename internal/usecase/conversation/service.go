package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/turn"
	"github.com/view-avocats/assistant/internal/logger"
	"github.com/view-avocats/assistant/internal/metrics"
	"github.com/view-avocats/assistant/internal/usecase/responder"
)

// Config holds session limits and the fallback reply.
type Config struct {
	// FallbackMessage replaces the assistant reply when the model call fails.
	FallbackMessage string
	// MaxMessageChars caps user messages in runes; 0 disables the check.
	MaxMessageChars int
	// IdleTTL expires sessions without activity; 0 disables expiry.
	IdleTTL time.Duration
	// MaxSessions caps open sessions; 0 means unlimited.
	MaxSessions int
}

// Exchange is the outcome of one accepted submission.
type Exchange struct {
	SessionID string
	User      turn.Turn
	Reply     turn.Turn
	Result    responder.Result
	Turns     []turn.Turn
}

// Service owns the conversation sessions.
type Service struct {
	responder   Responder
	renderer    Renderer
	transcripts TranscriptWriter
	cfg         Config
	logger      *zap.Logger
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// New creates a conversation service.
func New(r Responder, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		responder: r,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// WithRenderer attaches a render sink.
func (s *Service) WithRenderer(r Renderer) *Service {
	s.renderer = r
	return s
}

// WithTranscripts attaches a transcript writer.
func (s *Service) WithTranscripts(w TranscriptWriter) *Service {
	s.transcripts = w
	return s
}

// Start opens a new empty session.
func (s *Service) Start() (string, error) {
	now := s.now()
	sess := &session{id: uuid.NewString(), createdAt: now, lastActive: now}

	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: limit %d", domain.ErrTooManySessions, s.cfg.MaxSessions)
	}
	s.sessions[sess.id] = sess
	s.publishCount()
	s.mu.Unlock()

	return sess.id, nil
}

// End closes a session and clears its turns. A request still in flight is discarded on arrival.
func (s *Service) End(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		s.publishCount()
	}
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	sess.closed = true
	sess.turns = nil
	sess.mu.Unlock()
	return nil
}

// Transcript returns a snapshot of the session.
func (s *Service) Transcript(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// Submit appends the user turn, asks the responder, and appends the reply.
// While a submission is in flight the session rejects others with ErrSessionBusy.
func (s *Service) Submit(ctx context.Context, id, text string) (Exchange, error) {
	sess, err := s.get(id)
	if err != nil {
		return Exchange{}, err
	}

	user, err := turn.NewUser(text, s.cfg.MaxMessageChars)
	if err != nil {
		return Exchange{}, err //nolint:wrapcheck // domain validation error
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return Exchange{}, domain.ErrSessionNotFound
	}
	if sess.busy {
		sess.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues("busy").Inc()
		return Exchange{}, domain.ErrSessionBusy
	}
	sess.busy = true
	sess.turns = append(sess.turns, user)
	sess.lastActive = s.now()
	pending := sess.snapshot()
	sess.mu.Unlock()

	s.render(pending)

	result := s.answer(ctx, text)

	reply := turn.NewAssistant(result.Text)
	if !result.OK() {
		reply = turn.NewFallback(s.cfg.FallbackMessage)
	}

	sess.mu.Lock()
	sess.busy = false
	if sess.closed {
		sess.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues("discarded").Inc()
		logger.FromContextOr(ctx, s.logger).Info("Discarded reply of an ended session", zap.String("session_id", id))
		return Exchange{}, domain.ErrSessionNotFound
	}
	sess.turns = append(sess.turns, reply)
	sess.lastActive = s.now()
	done := sess.snapshot()
	sess.mu.Unlock()

	if result.OK() {
		metrics.SubmissionsTotal.WithLabelValues("success").Inc()
	} else {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
	}

	s.render(done)
	s.persist(ctx, id, user, reply)

	return Exchange{SessionID: id, User: user, Reply: reply, Result: result, Turns: done.Turns}, nil
}

// answer never lets a responder panic leave the session busy.
func (s *Service) answer(ctx context.Context, text string) (res responder.Result) {
	defer func() {
		if p := recover(); p != nil {
			logger.FromContextOr(ctx, s.logger).Error("Responder panicked", zap.Any("panic", p))
			res = responder.Result{Status: responder.StatusError, Message: s.cfg.FallbackMessage}
		}
	}()
	return s.responder.Answer(ctx, text)
}

func (s *Service) render(snap Snapshot) {
	if s.renderer != nil {
		s.renderer.Render(snap.ID, snap.Turns)
	}
}

func (s *Service) persist(ctx context.Context, id string, turns ...turn.Turn) {
	if s.transcripts == nil {
		return
	}
	// Detached so a client disconnect after the reply does not lose the transcript.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.transcripts.Append(wctx, id, turns...); err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Failed to persist transcript",
			zap.String("session_id", id), zap.Error(err))
	}
}

func (s *Service) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// publishCount updates the session gauge. Callers hold s.mu so updates land in order.
func (s *Service) publishCount() {
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
}

// Count returns the number of open sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
