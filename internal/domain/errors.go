package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfig signals a fatal configuration problem (missing credential, missing knowledge file).
	ErrConfig = errors.New("configuration error")
	// ErrService signals a failed call to an external model service.
	ErrService = errors.New("service error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatProviderError signals a chat-completion provider failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrEmbeddingQuotaExceeded signals an exhausted token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")

	// ErrIndexNotBuilt signals a query against a vector index that was never published.
	ErrIndexNotBuilt = errors.New("index not built")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidChunking signals invalid chunk size or overlap parameters.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrSessionBusy signals a submission while another request of the same session is pending.
	ErrSessionBusy = errors.New("session busy")
	// ErrSessionNotFound signals an unknown or ended session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions signals that the session limit is reached.
	ErrTooManySessions = errors.New("too many sessions")

	// ErrEmptyMessage signals an empty user message.
	ErrEmptyMessage = errors.New("message is required")
	// ErrMessageTooLong signals a user message above the configured limit.
	ErrMessageTooLong = errors.New("message too long")
)

// Service names carried by ServiceError.
const (
	ServiceEmbedding = "embedding"
	ServiceChat      = "chat"
)

// ServiceError carries the upstream detail of a failed embedding or chat-completion call.
// It matches ErrService and the provider-specific sentinel via errors.Is.
type ServiceError struct {
	Service    string
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s service error %d: %s", e.Service, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s service error: %s", e.Service, e.Detail)
}

// Is reports whether target is ErrService or the sentinel of the failing service.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrService:
		return true
	case ErrEmbeddingProviderError:
		return e.Service == ServiceEmbedding
	case ErrChatProviderError:
		return e.Service == ServiceChat
	}
	return false
}

// FailureReason buckets a provider failure for metric labels:
// transport, rate_limited, upstream, api_error, or unknown for foreign errors.
func FailureReason(err error) string {
	var se *ServiceError
	if !errors.As(err, &se) {
		return "unknown"
	}
	switch {
	case se.StatusCode == 0:
		return "transport"
	case se.StatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case se.StatusCode >= http.StatusInternalServerError:
		return "upstream"
	default:
		return "api_error"
	}
}

// NewServiceError creates a ServiceError.
func NewServiceError(service string, statusCode int, detail string) error {
	return &ServiceError{Service: service, StatusCode: statusCode, Detail: detail}
}

// ConfigError wraps ErrConfig with the offending setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfig.Error(), e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// NewConfigError creates a ConfigError.
func NewConfigError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}
