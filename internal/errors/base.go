package errors

import (
	"fmt"
)

// Kind identifies a class of gateway failure
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindConnection
	KindTimeout
	KindAPI
	KindAuthentication
	KindValidation
	KindRateLimit
	KindInsufficientQuota
	KindToolCall
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindConfiguration:     "configuration",
	KindConnection:        "connection",
	KindTimeout:           "timeout",
	KindAPI:               "api",
	KindAuthentication:    "authentication",
	KindValidation:        "validation",
	KindRateLimit:         "rate_limit",
	KindInsufficientQuota: "insufficient_quota",
	KindToolCall:          "tool_call",
}

// String returns the snake_case name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// GatewayError is the base error type for all client errors
type GatewayError struct {
	Kind       Kind          // Failure class
	Message    string        // Human-readable error message
	Context    *ErrorContext // Rich error context
	Cause      error         // Underlying error (for wrapping)
	StatusCode int           // HTTP status, zero when no response was received
	RequestID  string        // Correlation id of the failing request
	ExitCode   ExitCode      // Exit code for CLI
}

// Error returns the error message with cause if present
func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Base returns the error itself. Typed errors embed *GatewayError and
// inherit it, which lets callers reach the shared fields through one interface.
func (e *GatewayError) Base() *GatewayError {
	return e
}

// GetUserMessage returns a user-friendly error message with context
func (e *GatewayError) GetUserMessage() string {
	msg := fmt.Sprintf("ERROR: %s", e.Message)

	if e.Cause != nil {
		msg += fmt.Sprintf("\nCause: %v", e.Cause)
	}

	if e.RequestID != "" {
		msg += fmt.Sprintf("\nRequest ID: %s", e.RequestID)
	}

	if e.Context != nil {
		msg += e.Context.Format()
	}

	return msg
}

// WithRequestID records the correlation id of the request that failed
func (e *GatewayError) WithRequestID(id string) *GatewayError {
	e.RequestID = id
	return e
}

// NewError creates a new GatewayError with the given kind and message
func NewError(kind Kind, message string, exitCode ExitCode) *GatewayError {
	return &GatewayError{
		Kind:     kind,
		Message:  message,
		ExitCode: exitCode,
	}
}

// WrapError wraps an existing error with additional context
func WrapError(kind Kind, cause error, message string, exitCode ExitCode) *GatewayError {
	return &GatewayError{
		Kind:     kind,
		Message:  message,
		Cause:    cause,
		ExitCode: exitCode,
	}
}

// WrapErrorWithContext wraps an error with full context
func WrapErrorWithContext(kind Kind, cause error, message string, exitCode ExitCode, context *ErrorContext) *GatewayError {
	return &GatewayError{
		Kind:     kind,
		Message:  message,
		Context:  context,
		Cause:    cause,
		ExitCode: exitCode,
	}
}

type baser interface {
	Base() *GatewayError
}

// AsGatewayError extracts the shared error fields from any error in the chain
func AsGatewayError(err error) (*GatewayError, bool) {
	var b baser
	if As(err, &b) {
		return b.Base(), true
	}
	return nil, false
}

// KindOf returns the kind of the first gateway error in the chain
func KindOf(err error) Kind {
	if ge, ok := AsGatewayError(err); ok {
		return ge.Kind
	}
	return KindUnknown
}
