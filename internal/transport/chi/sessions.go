package chi

import (
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/turn"
	logpkg "github.com/view-avocats/assistant/internal/logger"
	"github.com/view-avocats/assistant/internal/usecase/conversation"
)

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.Start()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, SessionCreatedResponse{SessionID: id})
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := s.sessions.Transcript(id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		SessionID: snap.ID,
		State:     string(snap.State),
		Turns:     turnsResponse(snap.Turns),
	})
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	if err := s.sessions.End(id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitMessage handles POST /sessions/{sessionID}/messages.
func (s *Server) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.ContextWithUsage(logpkg.With(r.Context(), zap.String("session_id", id)))
	log := logpkg.FromContextOr(ctx, s.logger)
	log.Info("Session message", zap.String("message", req.Message))

	ex, err := s.sessions.Submit(ctx, id, req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	log.Info("Session reply",
		zap.String("status", string(ex.Result.Status)),
		zap.Bool("fallback", ex.Reply.Failed()),
		zap.String("response", ex.Reply.Text()),
	)
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, submitResponse(ex))
}

// sessionID binds the {sessionID} path parameter. Malformed ids are unknown sessions.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "sessionID", chirouter.URLParam(r, "sessionID"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter sessionID: "+err.Error())
		return "", false
	}
	if uuid.Validate(id) != nil {
		s.handleDomainError(w, r, domain.ErrSessionNotFound)
		return "", false
	}
	return id, true
}

func submitResponse(ex conversation.Exchange) SubmitResponse {
	return SubmitResponse{
		ChatResponse: chatResponse(ex.Result),
		Turns:        turnsResponse(ex.Turns),
	}
}

func turnsResponse(turns []turn.Turn) []TurnResponse {
	out := make([]TurnResponse, len(turns))
	for i, t := range turns {
		out[i] = TurnResponse{
			ID:        t.ID(),
			Role:      string(t.Role()),
			Text:      t.Text(),
			Status:    string(t.Status()),
			CreatedAt: t.CreatedAt(),
		}
	}
	return out
}
