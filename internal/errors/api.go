package errors

import (
	"fmt"
)

// APIError is raised for non-2xx gateway responses and for response bodies
// that do not have the expected shape
type APIError struct {
	*GatewayError
	ErrorType string // "type" field of the gateway error body
	Body      string // Raw (truncated) response body
}

// NewAPIError creates a generic API error for the given status
func NewAPIError(status int, message string) *APIError {
	return &APIError{
		GatewayError: &GatewayError{
			Kind:       KindAPI,
			Message:    fmt.Sprintf("API request failed (%d): %s", status, message),
			StatusCode: status,
			ExitCode:   ExitAPIError,
		},
	}
}

// NewInvalidResponseError is raised when a 2xx body cannot be used
func NewInvalidResponseError(endpoint, reason string, cause error) *APIError {
	return &APIError{
		GatewayError: &GatewayError{
			Kind:    KindAPI,
			Message: reason,
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Parsing gateway response",
				Endpoint:  endpoint,
				Suggestions: []string{
					"Check if the model name is correct",
					"Check that base_url points at the gateway and not a provider",
					"Report this issue if it persists",
				},
			},
			ExitCode: ExitAPIError,
		},
	}
}

// AuthenticationError is raised on 401 responses
type AuthenticationError struct {
	*APIError
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{
		APIError: &APIError{
			GatewayError: &GatewayError{
				Kind:       KindAuthentication,
				Message:    fmt.Sprintf("Authentication failed: %s", message),
				StatusCode: 401,
				Context: &ErrorContext{
					Operation: "Authenticating with gateway",
					Suggestions: []string{
						"Check that api_key is set (LITELLM_API_KEY or LITE_LLM_API_KEY)",
						"Verify the key has not been revoked on the gateway",
					},
				},
				ExitCode: ExitAuthError,
			},
		},
	}
}

// ValidationError is raised on 422 responses
type ValidationError struct {
	*APIError
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		APIError: &APIError{
			GatewayError: &GatewayError{
				Kind:       KindValidation,
				Message:    fmt.Sprintf("Validation failed: %s", message),
				StatusCode: 422,
				ExitCode:   ExitValidationError,
			},
		},
	}
}

// RateLimitError is raised on 429 responses without a quota marker
type RateLimitError struct {
	*APIError
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError() *RateLimitError {
	return &RateLimitError{
		APIError: &APIError{
			GatewayError: &GatewayError{
				Kind:       KindRateLimit,
				Message:    "Rate limit exceeded",
				StatusCode: 429,
				Context: &ErrorContext{
					Suggestions: []string{
						"Wait before retrying",
						"Enable transport retries via retry.max_attempts",
					},
					Recoverable: true,
				},
				ExitCode: ExitRateLimitError,
			},
		},
	}
}

// InsufficientQuotaError is raised on 429 responses whose body reports an
// exhausted quota
type InsufficientQuotaError struct {
	*APIError
}

// NewInsufficientQuotaError creates a new quota error
func NewInsufficientQuotaError() *InsufficientQuotaError {
	return &InsufficientQuotaError{
		APIError: &APIError{
			GatewayError: &GatewayError{
				Kind:       KindInsufficientQuota,
				Message:    "API quota exceeded",
				StatusCode: 429,
				Context: &ErrorContext{
					Suggestions: []string{
						"Check the billing or budget settings of the gateway key",
					},
				},
				ExitCode: ExitRateLimitError,
			},
		},
	}
}
