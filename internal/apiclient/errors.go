package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

// Error codes the API uses in error bodies
const (
	CodeSoldOut          = "sold_out"
	CodeCapacityExceeded = "capacity_exceeded"
	CodeAlreadyConfirmed = "already_confirmed"
)

// APIError represents a non-success response from the event API
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the response onto the domain errors callers branch on
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return models.ErrAuthRequired
	case e.Code == CodeSoldOut || e.Code == CodeCapacityExceeded:
		return models.ErrSoldOut
	case e.Code == CodeAlreadyConfirmed:
		return models.ErrAlreadyConfirmed
	case e.StatusCode == http.StatusConflict && strings.Contains(strings.ToLower(e.Message), "sold out"):
		return models.ErrSoldOut
	}
	return nil
}

// Retryable reports whether repeating the same read may succeed
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// errorBody accepts the error shapes the API is known to emit
type errorBody struct {
	Code    string          `json:"code"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
			apiErr.Message = text
		}
		return apiErr
	}

	apiErr.Code = parsed.Code
	switch {
	case parsed.Message != "":
		apiErr.Message = parsed.Message
	case parsed.Error != "":
		apiErr.Message = parsed.Error
	case len(parsed.Detail) > 0:
		var detail string
		if json.Unmarshal(parsed.Detail, &detail) == nil {
			apiErr.Message = detail
		}
	}

	// Some deployments only signal the code in the message
	if apiErr.Code == "" {
		lower := strings.ToLower(apiErr.Message)
		switch {
		case strings.Contains(lower, "sold out"), strings.Contains(lower, "capacity"):
			if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
				apiErr.Code = CodeSoldOut
			}
		case strings.Contains(lower, "already confirmed"):
			apiErr.Code = CodeAlreadyConfirmed
		}
	}

	return apiErr
}
