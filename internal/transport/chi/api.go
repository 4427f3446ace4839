package chi

import "time"

// ErrorCode is the machine-readable code of an ErrorResponse.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeSessionNotFound  ErrorCode = "session_not_found"
	CodeSessionBusy      ErrorCode = "session_busy"
	CodeTooManySessions  ErrorCode = "too_many_sessions"
	CodeIndexNotBuilt    ErrorCode = "index_not_built"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ChatRequest is the body of POST /chat and POST /sessions/{id}/messages.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the widget contract: status "success" with response,
// or status "error" with a user-facing message.
type ChatResponse struct {
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

// TurnResponse is one conversation turn.
type TurnResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionCreatedResponse is the body of POST /sessions.
type SessionCreatedResponse struct {
	SessionID string `json:"session_id"`
}

// SessionResponse is the body of GET /sessions/{id}.
type SessionResponse struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Turns     []TurnResponse `json:"turns"`
}

// SubmitResponse is the body of POST /sessions/{id}/messages.
type SubmitResponse struct {
	ChatResponse
	Turns []TurnResponse `json:"turns"`
}

// KnowledgeResponse reports the published knowledge index.
type KnowledgeResponse struct {
	Enabled    bool       `json:"enabled"`
	Built      bool       `json:"built"`
	Chunks     int        `json:"chunks"`
	Dimensions int        `json:"dimensions"`
	BuiltAt    *time.Time `json:"built_at,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// UsageResponse reports embedding token consumption of one window.
// TokensLimit is 0 and TokensRemaining -1 for an unlimited window.
type UsageResponse struct {
	Period          string    `json:"period"`
	Provider        string    `json:"provider,omitempty"`
	PeriodStartAt   time.Time `json:"period_start_at"`
	PeriodEndAt     time.Time `json:"period_end_at"`
	TokensUsed      int64     `json:"tokens_used"`
	TokensLimit     int64     `json:"tokens_limit"`
	TokensRemaining int64     `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
}
