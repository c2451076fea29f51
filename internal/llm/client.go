package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/litellm/internal/errors"
	"github.com/user/litellm/internal/logging"
	"github.com/user/litellm/internal/observability"
)

// maxErrorBody bounds how much of a non-2xx body is read for classification
const maxErrorBody = 1 << 20

// GatewayConfig holds the connection settings of a GatewayClient
type GatewayConfig struct {
	BaseURL                string
	APIKey                 string
	Timeout                time.Duration // Sent to the gateway as X-LITELLM-TIMEOUT
	EnableMessageRedaction bool
	Debug                  bool // Log payloads and raw responses
}

// GatewayClient sends JSON requests to the gateway and classifies failures.
// It is safe for concurrent use.
type GatewayClient struct {
	config       GatewayConfig
	transport    Transport
	logger       *logging.Logger
	metrics      *observability.Metrics
	newRequestID func() string
}

// NewGatewayClient creates a gateway client. A nil transport uses a
// RetryClient with default settings; a nil logger discards output.
func NewGatewayClient(config GatewayConfig, transport Transport, logger *logging.Logger, metrics *observability.Metrics) *GatewayClient {
	if transport == nil {
		transport = NewRetryClient(nil)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &GatewayClient{
		config:       config,
		transport:    transport,
		logger:       logger,
		metrics:      metrics,
		newRequestID: uuid.NewString,
	}
}

// SetRequestIDFunc replaces the correlation id generator
func (g *GatewayClient) SetRequestIDFunc(fn func() string) {
	if fn != nil {
		g.newRequestID = fn
	}
}

// Logger returns the logger of the client
func (g *GatewayClient) Logger() *logging.Logger {
	return g.logger
}

// Response is a successful gateway response. The caller must close Body.
type Response struct {
	*http.Response
	RequestID string
	Endpoint  string
}

// Do sends one request. payload is encoded as JSON when non-nil. A transport
// failure or a non-2xx status is returned as a classified error carrying the
// request id; no response is returned in that case.
func (g *GatewayClient) Do(ctx context.Context, method, endpoint string, payload interface{}, stream bool) (*Response, error) {
	requestID := g.newRequestID()

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		if g.config.Debug {
			g.logger.Debug(fmt.Sprintf("[%s] Payload", requestID), logging.String("payload", string(jsonData)))
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	g.setHeaders(httpReq, requestID, stream)

	g.logger.Info(fmt.Sprintf("[%s] Request to %s", requestID, endpoint),
		logging.String("method", method),
		logging.Bool("stream", stream),
	)

	start := time.Now()
	resp, err := g.transport.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		classified := errors.ClassifyTransportError(endpoint, err)
		g.metrics.ObserveRequest(endpoint, errors.KindOf(classified).String(), time.Since(start))
		g.logger.Error(fmt.Sprintf("[%s] Request failed", requestID), logging.Error(classified))
		return nil, withRequestID(classified, requestID)
	}
	g.metrics.ObserveRequest(endpoint, observability.StatusLabel(resp.StatusCode), time.Since(start))

	g.logger.Info(fmt.Sprintf("[%s] Response received", requestID),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			g.logger.Warn(fmt.Sprintf("[%s] Failed to read error body", requestID), logging.Error(readErr))
		}
		if g.config.Debug {
			g.logger.Debug(fmt.Sprintf("[%s] Error body", requestID), logging.String("body", string(data)))
		}
		classified := errors.ClassifyResponse(resp.StatusCode, data)
		g.logger.Error(fmt.Sprintf("[%s] Gateway returned an error", requestID),
			logging.Int("status", resp.StatusCode),
			logging.Error(classified),
		)
		return nil, withRequestID(classified, requestID)
	}

	return &Response{Response: resp, RequestID: requestID, Endpoint: endpoint}, nil
}

func (g *GatewayClient) setHeaders(req *http.Request, requestID string, stream bool) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if g.config.Timeout > 0 {
		req.Header.Set("X-LITELLM-TIMEOUT", strconv.Itoa(int(g.config.Timeout/time.Second)))
	}
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}
	if g.config.EnableMessageRedaction {
		req.Header.Set("X-LITELLM-ENABLE-MESSAGE-REDACTION", "true")
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
}

// DecodeJSON reads and closes the response body and decodes it into v.
// A non-JSON body becomes an APIError, a failed read a connection error.
func (g *GatewayClient) DecodeJSON(ctx context.Context, resp *Response, v interface{}) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return withRequestID(errors.ClassifyTransportError(resp.Endpoint, err), resp.RequestID)
	}
	if g.config.Debug {
		g.logger.Debug(fmt.Sprintf("[%s] Response body", resp.RequestID), logging.String("body", string(data)))
	}

	if err := json.Unmarshal(data, v); err != nil {
		e := errors.NewInvalidResponseError(resp.Endpoint, "Invalid JSON response from server", err)
		return withRequestID(e, resp.RequestID)
	}
	return nil
}

func withRequestID(err error, requestID string) error {
	if ge, ok := errors.AsGatewayError(err); ok && ge.RequestID == "" {
		ge.WithRequestID(requestID)
	}
	return err
}
