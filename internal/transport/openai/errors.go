package openai

import (
	"context"
	"encoding/json"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/view-avocats/assistant/internal/domain"
)

// parseAPIError converts a go-openai error into a *domain.ServiceError for the given service.
func parseAPIError(service string, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return domain.NewServiceError(service, reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewServiceError(service, apiErr.HTTPStatusCode, apiErr.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewServiceError(service, 0, "request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return domain.NewServiceError(service, 0, "request cancelled")
	}

	return domain.NewServiceError(service, 0, err.Error())
}

// extractDetail extracts a readable message from a JSON error body.
// Handles {"detail": "..."} and {"error": {"message": "..."}}.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error.Message
}
