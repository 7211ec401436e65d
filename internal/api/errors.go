package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/readwell/readwell-server/internal/http/response"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status int
	response.ErrorBody
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if s, body, ok := response.Describe(err); ok {
				return &APIError{status: s, ErrorBody: body}
			}
		}

		apiErr := &APIError{
			status: status,
			ErrorBody: response.ErrorBody{
				Code:    response.CodeForStatus(status),
				Message: message,
			},
		}

		// Request validation failures from huma carry one detail per field.
		var details []string
		for _, err := range errs {
			if err != nil {
				details = append(details, err.Error())
			}
		}
		if len(details) > 0 && status < 500 {
			apiErr.Details = details
		}
		return apiErr
	}
}
