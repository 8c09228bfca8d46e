package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/livetodo/internal/domain/todo"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var verr *todo.ValidationError
	switch {
	case errors.As(err, &verr):
		return &APIError{Code: "INVALID_INPUT", Message: "validation failed", Details: verr.Fields, RecoveryHint: "Fix the listed fields"}
	case errors.Is(err, todo.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, todo.ErrNotFound):
		return &APIError{Code: "TODO_NOT_FOUND", Message: "todo not found", RecoveryHint: "Call list_todos for current ids"}
	default:
		return nil
	}
}

// toolError converts a service error into the error reported to the agent.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
