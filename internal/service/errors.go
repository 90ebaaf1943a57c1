package service

import (
	"errors"
	"fmt"

	"docchat/internal/llm"
)

// maxDetailLen bounds the upstream detail returned to API clients.
const maxDetailLen = 300

// Domain errors
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("resource not found")
	ErrExternalService = errors.New("external service error")
)

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// UpstreamDetail returns a client-safe description of an Ollama failure, at most
// 300 bytes long. It is empty when err does not carry an *llm.BackendError.
func UpstreamDetail(err error) string {
	var backendErr *llm.BackendError
	if !errors.As(err, &backendErr) {
		return ""
	}
	detail := backendErr.Summary()
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen]
	}
	return detail
}

// backendFailure marks Ollama failures as ErrExternalService while keeping the
// *llm.BackendError reachable through errors.As. Other errors are only wrapped.
func backendFailure(err error, msg string) error {
	var backendErr *llm.BackendError
	if errors.As(err, &backendErr) {
		return fmt.Errorf("%s: %w: %w", msg, ErrExternalService, err)
	}
	return WrapError(err, msg)
}
