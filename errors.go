package litellm

import (
	stderrors "errors"

	"github.com/user/litellm/internal/errors"
)

// Error types returned by the client. Every one embeds *GatewayError, which
// carries the HTTP status, the request id and the underlying cause.
type (
	GatewayError           = errors.GatewayError
	ConfigurationError     = errors.ConfigurationError
	ConnectionError        = errors.ConnectionError
	TimeoutError           = errors.TimeoutError
	APIError               = errors.APIError
	AuthenticationError    = errors.AuthenticationError
	ValidationError        = errors.ValidationError
	RateLimitError         = errors.RateLimitError
	InsufficientQuotaError = errors.InsufficientQuotaError
	ToolCallError          = errors.ToolCallError
)

// ErrStreamCallbackRequired is returned when a streamed completion has no
// OnDelta callback. Nothing is sent to the gateway in that case.
var ErrStreamCallbackRequired = stderrors.New("litellm: streaming completion requires an OnDelta callback")

var (
	IsConfigurationError     = errors.IsConfigurationError
	IsConnectionError        = errors.IsConnectionError
	IsTimeoutError           = errors.IsTimeoutError
	IsAPIError               = errors.IsAPIError
	IsAuthenticationError    = errors.IsAuthenticationError
	IsValidationError        = errors.IsValidationError
	IsRateLimitError         = errors.IsRateLimitError
	IsInsufficientQuotaError = errors.IsInsufficientQuotaError
	IsToolCallError          = errors.IsToolCallError
)

// RequestID returns the correlation id of the request that produced err, or
// "" when err did not come from a gateway request
func RequestID(err error) string {
	if ge, ok := errors.AsGatewayError(err); ok {
		return ge.RequestID
	}
	return ""
}

// StatusCode returns the HTTP status behind err, or 0 when no response was
// received
func StatusCode(err error) int {
	if ge, ok := errors.AsGatewayError(err); ok {
		return ge.StatusCode
	}
	return 0
}
