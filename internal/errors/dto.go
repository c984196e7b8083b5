package errors

import (
	"github.com/cockroachdb/errors"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// NewErrorResponse renders err the way the CLI and hosts report it.
// The first hint becomes the display message when present.
func NewErrorResponse(err error) ErrorResponse {
	display := err.Error()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		display = hints[0]
	}

	var details map[string]any
	if code := CodeFromErr(err); code != "" {
		details = map[string]any{"code": code}
	}

	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display:       display,
			InternalError: err.Error(),
			Details:       details,
		},
	}
}
