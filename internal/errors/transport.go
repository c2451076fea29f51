package errors

import (
	"fmt"
)

// ConnectionError is raised when the gateway cannot be reached or the
// connection breaks before a complete response arrives
type ConnectionError struct {
	*GatewayError
}

// NewConnectionError creates a new connection error
func NewConnectionError(endpoint string, cause error) *ConnectionError {
	return &ConnectionError{
		GatewayError: &GatewayError{
			Kind:    KindConnection,
			Message: fmt.Sprintf("Failed to connect to gateway: %s", endpoint),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Gateway request",
				Endpoint:  endpoint,
				Suggestions: []string{
					"Check that the gateway is running and reachable",
					"Verify base_url in your configuration",
					"Try again later (service may be unavailable)",
				},
				Recoverable: true,
			},
			ExitCode: ExitConnectionError,
		},
	}
}

// NewCancelledError creates the ConnectionError for a request the caller
// cancelled
func NewCancelledError(endpoint string, cause error) *ConnectionError {
	return &ConnectionError{
		GatewayError: &GatewayError{
			Kind:    KindConnection,
			Message: fmt.Sprintf("Request to %s was cancelled", endpoint),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Gateway request",
				Endpoint:  endpoint,
				Details:   map[string]interface{}{"cancelled": true},
			},
			ExitCode: ExitConnectionError,
		},
	}
}

// TimeoutError is raised when a request exceeds its deadline
type TimeoutError struct {
	*GatewayError
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(endpoint string, cause error) *TimeoutError {
	return &TimeoutError{
		GatewayError: &GatewayError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("Request to %s timed out", endpoint),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Gateway request",
				Endpoint:  endpoint,
				Suggestions: []string{
					"Increase the timeout via LITELLM_TIMEOUT",
					"Try a faster model",
				},
				Recoverable: true,
			},
			ExitCode: ExitConnectionError,
		},
	}
}
