package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	ErrInvalidRequest = errors.New("invalid request body")
	ErrValidation     = errors.New("validation failed")

	// ErrGateway marks upstream repository-host failures. Use errors.Is
	// against this sentinel; the concrete *GatewayError carries the
	// upstream status and message.
	ErrGateway = errors.New("issue gateway error")
)

// GatewayError is returned by the issue gateway on any non-success
// response from the repository host.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Message)
}
func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

// RequestAlreadyExistsError reports a duplicate analysis request id.
type RequestAlreadyExistsError struct{ RequestID string }

func (e *RequestAlreadyExistsError) Error() string {
	return fmt.Sprintf("analysis request '%s' already exists", e.RequestID)
}
func (e *RequestAlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }
