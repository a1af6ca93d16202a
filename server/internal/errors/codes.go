package errors

import (
	"fmt"
)

// ErrorCode classifies retrieval failures for callers and for the bot's
// tool-response surface.
type ErrorCode string

const (
	// ErrCodeInvalidParameters indicates the caller supplied bad input.
	ErrCodeInvalidParameters ErrorCode = "invalid_parameters"
	// ErrCodeConfigurationError indicates a required dependency is not
	// configured or not ready yet.
	ErrCodeConfigurationError ErrorCode = "configuration_error"
	// ErrCodeExecutionError indicates a downstream operation failed.
	ErrCodeExecutionError ErrorCode = "execution_error"
	// ErrCodeNotFound indicates the requested record does not exist in
	// the caller's scope.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeContextError indicates the operation needs scope context
	// the caller did not provide.
	ErrCodeContextError ErrorCode = "context_error"
)

// RetrievalError is a structured error carrying a stable code and a
// retryability hint.
type RetrievalError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether retrying the same call later could succeed.
// Bad parameters, missing records, and missing scope never fix
// themselves; configuration and execution failures can.
func (e *RetrievalError) Retryable() bool {
	return e.Code == ErrCodeConfigurationError || e.Code == ErrCodeExecutionError
}

// Payload is the wire shape every error surface serializes, so the
// HTTP router, middleware, and tool responses cannot drift apart.
type Payload struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Payload renders the error into its wire shape.
func (e *RetrievalError) Payload() *Payload {
	return &Payload{
		Type:      string(e.Code),
		Message:   e.Message,
		Retryable: e.Retryable(),
	}
}

// InvalidParameters creates an invalid parameters error.
func InvalidParameters(msg string) *RetrievalError {
	return &RetrievalError{Code: ErrCodeInvalidParameters, Message: msg}
}

// ConfigurationError creates a configuration error.
func ConfigurationError(msg string) *RetrievalError {
	return &RetrievalError{Code: ErrCodeConfigurationError, Message: msg}
}

// ExecutionError creates an execution error wrapping its cause.
func ExecutionError(msg string, cause error) *RetrievalError {
	return &RetrievalError{Code: ErrCodeExecutionError, Message: msg, Cause: cause}
}

// NotFound creates a not found error.
func NotFound(msg string) *RetrievalError {
	return &RetrievalError{Code: ErrCodeNotFound, Message: msg}
}

// ContextError creates a context error.
func ContextError(msg string) *RetrievalError {
	return &RetrievalError{Code: ErrCodeContextError, Message: msg}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *RetrievalError {
	return &RetrievalError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error carries a specific code.
func IsCode(err error, code ErrorCode) bool {
	if rerr, ok := err.(*RetrievalError); ok {
		return rerr.Code == code
	}
	return false
}

// CodeOf extracts the code from any error, falling back to the given
// default when the error is not a RetrievalError.
func CodeOf(err error, defaultCode ErrorCode) ErrorCode {
	if rerr, ok := err.(*RetrievalError); ok {
		return rerr.Code
	}
	return defaultCode
}
