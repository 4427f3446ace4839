package chi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/turn"
	"github.com/view-avocats/assistant/internal/logger"
	"github.com/view-avocats/assistant/internal/usecase/responder"
)

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}
	s.answer(w, r, req.Message)
}

// ChatQuery handles GET /chat?message=...
func (s *Server) ChatQuery(w http.ResponseWriter, r *http.Request) {
	s.answer(w, r, r.URL.Query().Get("message"))
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request, message string) {
	if _, err := turn.NewUser(message, s.opts.MaxMessageChars); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	log := logger.FromContextOr(r.Context(), s.logger)
	log.Info("Chat request", zap.String("message", message))

	ctx, usage := domain.ContextWithUsage(r.Context())
	res := s.answerer.Answer(ctx, message)

	log.Info("Chat response",
		zap.String("status", string(res.Status)),
		zap.String("response", res.Text),
		zap.Ints("sources", res.Sources),
	)
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, chatResponse(res))
}

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return ChatRequest{}, false
	}
	return req, true
}

func chatResponse(res responder.Result) ChatResponse {
	if res.OK() {
		return ChatResponse{Status: string(responder.StatusSuccess), Response: res.Text}
	}
	return ChatResponse{Status: string(responder.StatusError), Message: res.Message}
}

// setEmbeddingHeaders reports query embedding tokens when retrieval ran.
func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.Tokens()))
	}
}
