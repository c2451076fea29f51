package litellm

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/litellm/internal/config"
	"github.com/user/litellm/internal/errors"
	"github.com/user/litellm/internal/llm"
	"github.com/user/litellm/internal/logging"
	"github.com/user/litellm/internal/observability"
	"github.com/user/litellm/internal/worker_pool"
)

// Transport sends one HTTP request. *http.Client satisfies it.
type Transport = llm.Transport

// Logger is the structured logger used by the client
type Logger = logging.Logger

// Option customizes a Client
type Option func(*options)

type options struct {
	logger     *logging.Logger
	transport  Transport
	registerer prometheus.Registerer
	requestID  func() string
	poolSize   int
}

// WithLogger sets the logger. Without it the client logs nothing.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithZapLogger logs through z
func WithZapLogger(z *zap.Logger) Option {
	return func(o *options) {
		o.logger = logging.FromZap(z)
	}
}

// WithTransport replaces the default retrying HTTP transport. The transport
// is responsible for its own timeout and retries.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithHTTPClient uses c as the transport
func WithHTTPClient(c *http.Client) Option {
	return WithTransport(c)
}

// WithMetrics registers the client metrics with reg. Without it the metrics
// live in a private registry, see Client.Metrics.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithRequestIDFunc replaces the uuid generator used for X-Request-ID
func WithRequestIDFunc(fn func() string) Option {
	return func(o *options) {
		o.requestID = fn
	}
}

// WithToolWorkers bounds how many tool calls run at once when parallel tool
// calls are enabled. The default runs every call of a round at once.
func WithToolWorkers(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// Client talks to one gateway. It holds no conversation state and is safe
// for concurrent use.
type Client struct {
	config  Config
	gateway *llm.GatewayClient
	logger  *logging.Logger
	metrics *observability.Metrics
	pool    *worker_pool.WorkerPool
}

// New creates a client. Zero-valued fields of cfg take their defaults; the
// resulting configuration must name an http or https base URL.
func New(cfg Config, opts ...Option) (*Client, error) {
	config.ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNopLogger()
	}

	transport := o.transport
	if transport == nil {
		transport = llm.NewRetryClientWithTimeout(cfg.GetTimeout(), &llm.RetryConfig{
			MaxAttempts:       cfg.Retry.GetMaxAttempts(),
			Multiplier:        cfg.Retry.GetMultiplier(),
			MaxWaitPerAttempt: cfg.Retry.GetMaxWaitPerAttempt(),
			MaxTotalWait:      cfg.Retry.GetMaxTotalWait(),
		})
	}

	metrics := observability.NewMetrics(o.registerer)

	gateway := llm.NewGatewayClient(llm.GatewayConfig{
		BaseURL:                cfg.BaseURL,
		APIKey:                 cfg.APIKey,
		Timeout:                cfg.GetTimeout(),
		EnableMessageRedaction: cfg.EnableMessageRedaction,
		Debug:                  cfg.Debug,
	}, transport, o.logger, metrics)
	gateway.SetRequestIDFunc(o.requestID)

	c := &Client{
		config:  cfg,
		gateway: gateway,
		logger:  o.logger,
		metrics: metrics,
	}
	if o.poolSize > 0 {
		c.pool = worker_pool.NewWorkerPool(o.poolSize)
	}
	return c, nil
}

// Config returns the effective configuration, defaults applied
func (c *Client) Config() Config {
	return c.config
}

// Metrics returns the gatherer holding the client metrics, or nil when they
// were registered with WithMetrics
func (c *Client) Metrics() prometheus.Gatherer {
	return c.metrics.Gatherer()
}

// Models lists the model ids the gateway serves
func (c *Client) Models(ctx context.Context) ([]string, error) {
	resp, err := c.gateway.Do(ctx, http.MethodGet, llm.ModelsEndpoint, nil, false)
	if err != nil {
		return nil, err
	}

	var out llm.ModelsResponse
	if err := c.gateway.DecodeJSON(ctx, resp, &out); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// EmbeddingRequest describes an embedding call
type EmbeddingRequest struct {
	Input      interface{} // string or []string
	Model      string      // Defaults to Config.EmbeddingModel
	Dimensions int         // Defaults to Config.EmbeddingDimensions
	Options    map[string]interface{}
}

// Embedding returns the first embedding vector of the response
func (c *Client) Embedding(ctx context.Context, req EmbeddingRequest) ([]float64, error) {
	vectors, err := c.Embeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.NewInvalidResponseError(llm.EmbeddingsEndpoint, "Embedding response contains no data", nil)
	}
	return vectors[0], nil
}

// Embeddings returns every embedding vector of the response, one per input
func (c *Client) Embeddings(ctx context.Context, req EmbeddingRequest) ([][]float64, error) {
	payload := &llm.Payload{
		Input:      req.Input,
		Model:      firstNonEmpty(req.Model, c.config.EmbeddingModel),
		Dimensions: req.Dimensions,
		Options:    req.Options,
	}
	if payload.Dimensions == 0 {
		payload.Dimensions = c.config.EmbeddingDimensions
	}

	resp, err := c.gateway.Do(ctx, http.MethodPost, llm.EmbeddingsEndpoint, payload, false)
	if err != nil {
		return nil, err
	}

	var out llm.EmbeddingResponse
	if err := c.gateway.DecodeJSON(ctx, resp, &out); err != nil {
		return nil, err
	}

	vectors := make([][]float64, 0, len(out.Data))
	for _, d := range out.Data {
		vectors = append(vectors, d.Embedding)
	}
	return vectors, nil
}

// ImageRequest describes an image generation call
type ImageRequest struct {
	Prompt  string
	Model   string // Defaults to Config.ImageModel
	Options map[string]interface{}
}

// ImageGeneration returns the URL of the first generated image. A response
// without a URL, such as one carrying only b64_json, is an APIError.
func (c *Client) ImageGeneration(ctx context.Context, req ImageRequest) (string, error) {
	payload := &llm.Payload{
		Prompt:  req.Prompt,
		Model:   firstNonEmpty(req.Model, c.config.ImageModel),
		Options: req.Options,
	}

	resp, err := c.gateway.Do(ctx, http.MethodPost, llm.ImagesEndpoint, payload, false)
	if err != nil {
		return "", err
	}

	var out llm.ImageResponse
	if err := c.gateway.DecodeJSON(ctx, resp, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 {
		e := errors.NewInvalidResponseError(llm.ImagesEndpoint, "Image response contains no data", nil)
		e.WithRequestID(resp.RequestID)
		return "", e
	}
	if out.Data[0].URL == "" {
		reason := "Image response contains no URL"
		if out.Data[0].B64JSON != "" {
			reason = "Image response contains b64_json instead of a URL; request response_format url"
		}
		e := errors.NewInvalidResponseError(llm.ImagesEndpoint, reason, nil)
		e.WithRequestID(resp.RequestID)
		return "", e
	}
	return out.Data[0].URL, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
