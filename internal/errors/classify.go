package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
)

// maxBodyInError bounds the raw body copy kept on an APIError
const maxBodyInError = 4096

// errorBody is the gateway error envelope: {"error":{"message","type","code"}}
type errorBody struct {
	Error *struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// ErrorDetail is the parsed content of a gateway error envelope
type ErrorDetail struct {
	Message string
	Type    string
	Code    string
}

// ParseErrorBody extracts the gateway error envelope from a response body.
// The second return value is false when the body has no error object.
func ParseErrorBody(body []byte) (ErrorDetail, bool) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error == nil {
		return ErrorDetail{}, false
	}

	detail := ErrorDetail{
		Message: eb.Error.Message,
		Type:    eb.Error.Type,
	}

	// code is a string on OpenAI-shaped bodies and a number on some proxies
	if len(eb.Error.Code) > 0 {
		var s string
		if err := json.Unmarshal(eb.Error.Code, &s); err == nil {
			detail.Code = s
		} else {
			detail.Code = string(eb.Error.Code)
		}
	}

	return detail, true
}

// StatusFromCode interprets an error code as an HTTP status when it is one
func (d ErrorDetail) StatusFromCode() (int, bool) {
	status, err := strconv.Atoi(d.Code)
	if err != nil || status < 400 || status > 599 {
		return 0, false
	}
	return status, true
}

// ClassifyResponse maps a non-2xx status and its body onto the error taxonomy
func ClassifyResponse(status int, body []byte) error {
	detail, ok := ParseErrorBody(body)
	message := detail.Message
	if message == "" {
		message = http.StatusText(status)
		if message == "" {
			message = fmt.Sprintf("HTTP %d", status)
		}
	}

	var classified error
	var apiErr *APIError

	switch status {
	case http.StatusUnauthorized:
		e := NewAuthenticationError(message)
		classified, apiErr = e, e.APIError
	case http.StatusUnprocessableEntity:
		e := NewValidationError(message)
		classified, apiErr = e, e.APIError
	case http.StatusTooManyRequests:
		if ok && isQuotaMarker(detail) {
			e := NewInsufficientQuotaError()
			classified, apiErr = e, e.APIError
		} else {
			e := NewRateLimitError()
			classified, apiErr = e, e.APIError
		}
	default:
		e := NewAPIError(status, message)
		classified, apiErr = e, e
	}

	apiErr.ErrorType = detail.Type
	apiErr.Body = truncate(string(body), maxBodyInError)
	return classified
}

func isQuotaMarker(d ErrorDetail) bool {
	return d.Type == "insufficient_quota" || d.Code == "insufficient_quota"
}

// ClassifyTransportError maps a failure that produced no HTTP response onto
// the error taxonomy. Deadlines become TimeoutError; everything else,
// including caller cancellation, becomes ConnectionError. Cancellation gets
// its own message since the gateway was never at fault.
func ClassifyTransportError(endpoint string, err error) error {
	if err == nil {
		return nil
	}

	if AsGatewayErrorKind(err, KindTimeout) || AsGatewayErrorKind(err, KindConnection) {
		return err
	}

	if Is(err, context.DeadlineExceeded) || Is(err, os.ErrDeadlineExceeded) {
		return NewTimeoutError(endpoint, err)
	}
	if Is(err, context.Canceled) {
		return NewCancelledError(endpoint, err)
	}

	var netErr net.Error
	if As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(endpoint, err)
	}

	return NewConnectionError(endpoint, err)
}

// AsGatewayErrorKind reports whether err already carries the given kind
func AsGatewayErrorKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
