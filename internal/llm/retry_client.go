package llm

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"
)

// Transport sends one HTTP request. *RetryClient and *http.Client both satisfy it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryConfig holds retry and connection pooling configuration
type RetryConfig struct {
	MaxAttempts       int           // Total attempts per request, 1 disables retries
	Multiplier        int           // Exponential backoff multiplier
	MaxWaitPerAttempt time.Duration // Maximum wait time per attempt
	MaxTotalWait      time.Duration // Maximum total wait time

	MaxIdleConns          int           // Idle connections kept across all hosts
	MaxIdleConnsPerHost   int           // Idle connections kept per host
	IdleConnTimeout       time.Duration // How long an idle connection stays in the pool
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration

	// Transport overrides the pooled transport built from the fields above
	Transport http.RoundTripper
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:           1,
		Multiplier:            1,
		MaxWaitPerAttempt:     60 * time.Second,
		MaxTotalWait:          300 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// RetryClient wraps http.Client with retry logic
type RetryClient struct {
	client *http.Client
	config *RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryClient creates a new retry client
func NewRetryClient(config *RetryConfig) *RetryClient {
	return NewRetryClientWithTimeout(120*time.Second, config)
}

// NewRetryClientWithTimeout creates a retry client with custom timeout
func NewRetryClientWithTimeout(timeout time.Duration, config *RetryConfig) *RetryClient {
	config = withDefaults(config)

	transport := config.Transport
	if transport == nil {
		transport = newPooledTransport(config)
	}

	return &RetryClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		config: config,
		sleep:  sleepContext,
	}
}

func withDefaults(config *RetryConfig) *RetryConfig {
	defaults := DefaultRetryConfig()
	if config == nil {
		return defaults
	}

	c := *config
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.Multiplier <= 0 {
		c.Multiplier = defaults.Multiplier
	}
	if c.MaxWaitPerAttempt <= 0 {
		c.MaxWaitPerAttempt = defaults.MaxWaitPerAttempt
	}
	if c.MaxTotalWait <= 0 {
		c.MaxTotalWait = defaults.MaxTotalWait
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaults.MaxIdleConns
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = defaults.MaxIdleConnsPerHost
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = defaults.IdleConnTimeout
	}
	if c.TLSHandshakeTimeout <= 0 {
		c.TLSHandshakeTimeout = defaults.TLSHandshakeTimeout
	}
	if c.ExpectContinueTimeout <= 0 {
		c.ExpectContinueTimeout = defaults.ExpectContinueTimeout
	}
	return &c
}

func newPooledTransport(config *RetryConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: config.ExpectContinueTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// Do executes an HTTP request with retry logic
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	return rc.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with retry logic and context.
// 429, 5xx and transport failures are retried with exponential backoff. When
// attempts run out the last response is returned as is so the caller can
// classify it; only transport failures come back as errors.
func (rc *RetryClient) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	totalStartTime := time.Now()

	for attempt := 0; attempt < rc.config.MaxAttempts; attempt++ {
		reqClone := req.Clone(ctx)
		if attempt > 0 && req.Body != nil && req.GetBody != nil {
			// request body can only be read once
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", bodyErr)
			}
			reqClone.Body = body
		}

		resp, err = rc.client.Do(reqClone)

		if !shouldRetry(ctx, resp, err) || attempt == rc.config.MaxAttempts-1 {
			break
		}

		// Calculate wait time with exponential backoff
		waitTime := rc.calculateWaitTime(attempt)

		// Check if we've exceeded max total wait time
		if time.Since(totalStartTime)+waitTime > rc.config.MaxTotalWait {
			break
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		if sleepErr := rc.sleep(ctx, waitTime); sleepErr != nil {
			return nil, sleepErr
		}
	}

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func shouldRetry(ctx context.Context, resp *http.Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// calculateWaitTime calculates wait time using exponential backoff
func (rc *RetryClient) calculateWaitTime(attempt int) time.Duration {
	// Exponential backoff: 2^attempt * multiplier seconds
	baseWait := time.Duration(math.Pow(2, float64(attempt))) * time.Duration(rc.config.Multiplier) * time.Second

	// Cap at max wait per attempt
	if baseWait > rc.config.MaxWaitPerAttempt {
		baseWait = rc.config.MaxWaitPerAttempt
	}

	return baseWait
}

// SetTimeout updates the client timeout
func (rc *RetryClient) SetTimeout(timeout time.Duration) {
	rc.client.Timeout = timeout
}

// GetTimeout returns the current client timeout
func (rc *RetryClient) GetTimeout() time.Duration {
	return rc.client.Timeout
}

// ConnectionStats describes the connection pool of a RetryClient
type ConnectionStats struct {
	TransportType         string
	HTTP2Enabled          bool
	TLSMinVersion         uint16
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	ClientTimeout         time.Duration
}

// GetConnectionStats returns the pool configuration in use
func (rc *RetryClient) GetConnectionStats() ConnectionStats {
	stats := ConnectionStats{
		TransportType: fmt.Sprintf("%T", rc.client.Transport),
		ClientTimeout: rc.client.Timeout,
	}

	if t, ok := rc.client.Transport.(*http.Transport); ok {
		stats.HTTP2Enabled = t.ForceAttemptHTTP2
		if t.TLSClientConfig != nil {
			stats.TLSMinVersion = t.TLSClientConfig.MinVersion
		}
		stats.MaxIdleConns = t.MaxIdleConns
		stats.MaxIdleConnsPerHost = t.MaxIdleConnsPerHost
		stats.IdleConnTimeout = t.IdleConnTimeout
		stats.TLSHandshakeTimeout = t.TLSHandshakeTimeout
		stats.ExpectContinueTimeout = t.ExpectContinueTimeout
	}

	return stats
}

// CloseIdleConnections closes idle pooled connections
func (rc *RetryClient) CloseIdleConnections() {
	rc.client.CloseIdleConnections()
}
