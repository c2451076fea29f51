package errors

// IsConfigurationError reports whether err is a configuration failure
func IsConfigurationError(err error) bool {
	return KindOf(err) == KindConfiguration
}

// IsConnectionError reports whether err is a connection failure
func IsConnectionError(err error) bool {
	return KindOf(err) == KindConnection
}

// IsTimeoutError reports whether err is a timeout
func IsTimeoutError(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsAPIError reports whether err came from a gateway response. The 401, 422
// and 429 specializations count as API errors too.
func IsAPIError(err error) bool {
	switch KindOf(err) {
	case KindAPI, KindAuthentication, KindValidation, KindRateLimit, KindInsufficientQuota:
		return true
	}
	return false
}

// IsAuthenticationError reports whether err is a 401 from the gateway
func IsAuthenticationError(err error) bool {
	return KindOf(err) == KindAuthentication
}

// IsValidationError reports whether err is a 422 from the gateway
func IsValidationError(err error) bool {
	return KindOf(err) == KindValidation
}

// IsRateLimitError reports whether err is a plain 429 from the gateway
func IsRateLimitError(err error) bool {
	return KindOf(err) == KindRateLimit
}

// IsInsufficientQuotaError reports whether err is a quota 429 from the gateway
func IsInsufficientQuotaError(err error) bool {
	return KindOf(err) == KindInsufficientQuota
}

// IsToolCallError reports whether err is a framework-level tool failure
func IsToolCallError(err error) bool {
	return KindOf(err) == KindToolCall
}

// ExitCodeFor returns the CLI exit code for err
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	if ge, ok := AsGatewayError(err); ok && ge.ExitCode != 0 {
		return ge.ExitCode
	}
	return ExitGeneralError
}

// UserMessage formats err for terminal output
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ge, ok := AsGatewayError(err); ok {
		return ge.GetUserMessage()
	}
	return "ERROR: " + err.Error()
}
