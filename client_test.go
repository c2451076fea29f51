package litellm

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	lltest "github.com/user/litellm/internal/testing"
)

func newTestClient(t *testing.T, gw *lltest.FakeGateway, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{BaseURL: gw.URL, APIKey: "sk-test", Model: "m"}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg, WithRequestIDFunc(sequentialIDs()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("req-%d", n)
	}
}

func TestNew_ValidatesBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{"unsupported scheme", "ftp://gateway.local"},
		{"no scheme", "gateway.local:8000"},
		{"unparsable", "http://[::1"},
		{"blank", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{BaseURL: tt.baseURL})
			if !IsConfigurationError(err) {
				t.Errorf("Expected ConfigurationError, got %T: %v", err, err)
			}
		})
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	c, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cfg := c.Config()
	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("Expected default base URL, got %s", cfg.BaseURL)
	}
	if cfg.Model != "gpt-4o" || cfg.EmbeddingModel != "text-embedding-3-large" || cfg.ImageModel != "dall-e-2" {
		t.Errorf("Unexpected default models %s, %s, %s", cfg.Model, cfg.EmbeddingModel, cfg.ImageModel)
	}
	if cfg.Timeout != 120 || cfg.EmbeddingDimensions != 1536 {
		t.Errorf("Unexpected defaults timeout=%d dimensions=%d", cfg.Timeout, cfg.EmbeddingDimensions)
	}
}

func TestClient_Headers(t *testing.T) {
	gw := lltest.NewFakeGateway(t, lltest.JSONHandler(`{"data":[]}`))
	c := newTestClient(t, gw, func(cfg *Config) {
		cfg.Timeout = 30
		cfg.EnableMessageRedaction = true
	})

	if _, err := c.Models(context.Background()); err != nil {
		t.Fatalf("Models failed: %v", err)
	}

	h := gw.Request(t, 0).Header
	expected := map[string]string{
		"Authorization":                      "Bearer sk-test",
		"X-Request-Id":                       "req-1",
		"X-Litellm-Timeout":                  "30",
		"X-Litellm-Enable-Message-Redaction": "true",
		"Content-Type":                       "application/json",
	}
	for name, want := range expected {
		if got := h.Get(name); got != want {
			t.Errorf("Expected header %s=%q, got %q", name, want, got)
		}
	}
}

func TestClient_HeadersWithoutKey(t *testing.T) {
	gw := lltest.NewFakeGateway(t, lltest.JSONHandler(`{"data":[]}`))
	c := newTestClient(t, gw, func(cfg *Config) { cfg.APIKey = "" })

	if _, err := c.Models(context.Background()); err != nil {
		t.Fatalf("Models failed: %v", err)
	}

	h := gw.Request(t, 0).Header
	if _, ok := h["Authorization"]; ok {
		t.Error("Expected no Authorization header without an api key")
	}
	if _, ok := h["X-Litellm-Enable-Message-Redaction"]; ok {
		t.Error("Expected no redaction header when disabled")
	}
	if h.Get("X-Request-Id") == "" {
		t.Error("Expected a request id on every request")
	}
}

func TestClient_Models(t *testing.T) {
	gw := lltest.NewFakeGateway(t, lltest.JSONHandler(`{"object":"list","data":[{"id":"gpt-4o","object":"model"},{"id":"claude-3","object":"model"}]}`))
	c := newTestClient(t, gw)

	models, err := c.Models(context.Background())
	if err != nil {
		t.Fatalf("Models failed: %v", err)
	}
	if !reflect.DeepEqual(models, []string{"gpt-4o", "claude-3"}) {
		t.Errorf("Expected [gpt-4o claude-3], got %v", models)
	}

	req := gw.Request(t, 0)
	if req.Method != http.MethodGet || req.Path != "/models" {
		t.Errorf("Expected GET /models, got %s %s", req.Method, req.Path)
	}
	if req.Raw != "" {
		t.Errorf("Expected no body on GET, got %q", req.Raw)
	}
}

func TestClient_EmbeddingDimensions(t *testing.T) {
	body := `{"model":"text-embedding-3-large","data":[{"index":0,"embedding":[0.1,0.2,0.3]}]}`
	gw := lltest.NewFakeGateway(t, lltest.JSONHandler(body))
	c := newTestClient(t, gw)

	vec, err := c.Embedding(context.Background(), EmbeddingRequest{Input: "hello", Dimensions: 256})
	if err != nil {
		t.Fatalf("Embedding failed: %v", err)
	}
	if !reflect.DeepEqual(vec, []float64{0.1, 0.2, 0.3}) {
		t.Errorf("Unexpected embedding %v", vec)
	}

	req := gw.Request(t, 0)
	if req.Path != "/embeddings" {
		t.Errorf("Expected /embeddings, got %s", req.Path)
	}
	if req.Body["dimensions"] != float64(256) {
		t.Errorf("Expected dimensions 256, got %v", req.Body["dimensions"])
	}
	if req.Body["input"] != "hello" || req.Body["model"] != "text-embedding-3-large" {
		t.Errorf("Unexpected body %v", req.Body)
	}

	if _, err := c.Embedding(context.Background(), EmbeddingRequest{Input: "hello", Model: "small"}); err != nil {
		t.Fatalf("Embedding failed: %v", err)
	}
	req = gw.Request(t, 1)
	if req.Body["dimensions"] != float64(1536) {
		t.Errorf("Expected configured default dimensions 1536, got %v", req.Body["dimensions"])
	}
	if req.Body["model"] != "small" {
		t.Errorf("Expected model override, got %v", req.Body["model"])
	}
}

func TestClient_Embeddings(t *testing.T) {
	body := `{"data":[{"index":0,"embedding":[1]},{"index":1,"embedding":[2]}]}`
	gw := lltest.NewFakeGateway(t, lltest.JSONHandler(body), lltest.JSONHandler(`{"data":[]}`))
	c := newTestClient(t, gw)

	vectors, err := c.Embeddings(context.Background(), EmbeddingRequest{
		Input:   []string{"a", "b"},
		Options: map[string]interface{}{"encoding_format": "float", "user": nil},
	})
	if err != nil {
		t.Fatalf("Embeddings failed: %v", err)
	}
	if len(vectors) != 2 || vectors[1][0] != 2 {
		t.Errorf("Unexpected vectors %v", vectors)
	}

	req := gw.Request(t, 0)
	if req.Body["encoding_format"] != "float" {
		t.Errorf("Expected passthrough option, got %v", req.Body)
	}
	if _, ok := req.Body["user"]; ok {
		t.Error("Expected nil option to be omitted")
	}
	if input, ok := req.Body["input"].([]interface{}); !ok || len(input) != 2 {
		t.Errorf("Expected input array, got %v", req.Body["input"])
	}

	_, err = c.Embedding(context.Background(), EmbeddingRequest{Input: "x"})
	if !IsAPIError(err) {
		t.Errorf("Expected APIError for empty data, got %v", err)
	}
}

func TestClient_ImageGeneration(t *testing.T) {
	body := `{"created":1700000000,"data":[{"url":"https://img.example/cat.png"}]}`
	gw := lltest.NewFakeGateway(t, lltest.JSONHandler(body), lltest.JSONHandler(`{"data":[]}`))
	c := newTestClient(t, gw)

	url, err := c.ImageGeneration(context.Background(), ImageRequest{
		Prompt:  "a cat",
		Options: map[string]interface{}{"size": "1024x1024"},
	})
	if err != nil {
		t.Fatalf("ImageGeneration failed: %v", err)
	}
	if url != "https://img.example/cat.png" {
		t.Errorf("Unexpected url %s", url)
	}

	req := gw.Request(t, 0)
	if req.Path != "/images/generations" {
		t.Errorf("Expected /images/generations, got %s", req.Path)
	}
	if req.Body["prompt"] != "a cat" || req.Body["model"] != "dall-e-2" || req.Body["size"] != "1024x1024" {
		t.Errorf("Unexpected body %v", req.Body)
	}
	if _, ok := req.Body["stream"]; ok {
		t.Error("Expected no stream key on image requests")
	}

	_, err = c.ImageGeneration(context.Background(), ImageRequest{Prompt: "a dog"})
	if !IsAPIError(err) || RequestID(err) != "req-2" {
		t.Errorf("Expected APIError for req-2, got %v (request %q)", err, RequestID(err))
	}
}

func TestClient_ImageGenerationWithoutURL(t *testing.T) {
	gw := lltest.NewFakeGateway(t,
		lltest.JSONHandler(`{"data":[{"b64_json":"aGVsbG8="}]}`),
		lltest.JSONHandler(`{"data":[{"revised_prompt":"a cat"}]}`),
	)
	c := newTestClient(t, gw)

	url, err := c.ImageGeneration(context.Background(), ImageRequest{
		Prompt:  "a cat",
		Options: map[string]interface{}{"response_format": "b64_json"},
	})
	if !IsAPIError(err) || url != "" {
		t.Fatalf("Expected APIError and no URL, got %q, %v", url, err)
	}
	if !strings.Contains(err.Error(), "b64_json") || RequestID(err) != "req-1" {
		t.Errorf("Expected b64_json error for req-1, got %v (request %q)", err, RequestID(err))
	}

	_, err = c.ImageGeneration(context.Background(), ImageRequest{Prompt: "a cat"})
	if !IsAPIError(err) || !strings.Contains(err.Error(), "no URL") {
		t.Errorf("Expected missing URL error, got %v", err)
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
		status  int
	}{
		{"unauthorized", lltest.UnauthorizedHandler(`{"error":{"message":"bad key"}}`), IsAuthenticationError, 401},
		{"validation", lltest.ErrorHandler(422, `{"error":{"message":"bad input"}}`), IsValidationError, 422},
		{"rate limit", lltest.RateLimitHandler(`{"error":{"message":"slow down"}}`), IsRateLimitError, 429},
		{"quota", lltest.RateLimitHandler(`{"error":{"message":"no credits","type":"insufficient_quota"}}`), IsInsufficientQuotaError, 429},
		{"server error", lltest.InternalErrorHandler(`{"error":{"message":"boom"}}`), IsAPIError, 500},
		{"not json", lltest.JSONHandler(`<html>`), IsAPIError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := lltest.NewFakeGateway(t, tt.handler)
			c := newTestClient(t, gw)

			_, err := c.Models(context.Background())
			if !tt.check(err) {
				t.Fatalf("Unexpected error %T: %v", err, err)
			}
			if StatusCode(err) != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, StatusCode(err))
			}
			if RequestID(err) != "req-1" {
				t.Errorf("Expected request id req-1, got %q", RequestID(err))
			}
		})
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c, err := New(Config{BaseURL: "http://" + addr})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = c.Completion(context.Background(), CompletionRequest{Messages: []Message{UserMessage("hi")}})
	if !IsConnectionError(err) {
		t.Errorf("Expected ConnectionError, got %T: %v", err, err)
	}
	if RequestID(err) == "" {
		t.Error("Expected the failing request id on the error")
	}
}

func TestClient_CustomTransport(t *testing.T) {
	gw := lltest.NewFakeGateway(t, lltest.JSONHandler(`{"data":[{"id":"a"}]}`))

	var seen int
	var mu sync.Mutex
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		seen++
		mu.Unlock()
		return http.DefaultClient.Do(req)
	})

	c, err := New(Config{BaseURL: gw.URL}, WithTransport(transport))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := c.Models(context.Background()); err != nil {
		t.Fatalf("Models failed: %v", err)
	}
	if seen != 1 {
		t.Errorf("Expected the custom transport to be used once, got %d", seen)
	}
}

type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestClient_Metrics(t *testing.T) {
	gw := lltest.NewFakeGateway(t, lltest.JSONHandler(`{"data":[]}`), lltest.UnauthorizedHandler(`{}`))
	reg := prometheus.NewRegistry()

	c, err := New(Config{BaseURL: gw.URL}, WithMetrics(reg))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Metrics() != nil {
		t.Error("Expected no private gatherer when a registerer is supplied")
	}

	c.Models(context.Background())
	c.Models(context.Background())

	if got := testutil.ToFloat64(c.metrics.RequestsTotal.WithLabelValues("/models", "2xx")); got != 1 {
		t.Errorf("Expected 1 successful request, got %v", got)
	}
	if got := testutil.ToFloat64(c.metrics.RequestsTotal.WithLabelValues("/models", "4xx")); got != 1 {
		t.Errorf("Expected 1 failed request, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "litellm_client_requests_total" {
			found = true
		}
	}
	if !found {
		t.Error("Expected request counter in the supplied registry")
	}
}

func TestClient_IndependentConcurrentClients(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 4)

	for i := 0; i < 4; i++ {
		answer := fmt.Sprintf("answer %d", i)
		gw := lltest.NewFakeGateway(t, lltest.JSONHandler(lltest.ChatResponse(answer)))
		c := newTestClient(t, gw, func(cfg *Config) { cfg.Model = fmt.Sprintf("model-%d", i) })

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := c.Completion(context.Background(), CompletionRequest{Messages: []Message{UserMessage("q")}})
			if err != nil {
				errs <- err
				return
			}
			if got != answer {
				errs <- fmt.Errorf("client %d: expected %q, got %q", i, answer, got)
				return
			}
			reqs := gw.Requests()
			if len(reqs) != 1 || reqs[0].Body["model"] != fmt.Sprintf("model-%d", i) {
				errs <- fmt.Errorf("client %d: expected one request with its own model, got %v", i, reqs)
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestClient_TrailingSlashBaseURL(t *testing.T) {
	gw := lltest.NewFakeGateway(t, lltest.JSONHandler(`{"data":[]}`))
	c, err := New(Config{BaseURL: gw.URL + "/"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := c.Models(context.Background()); err != nil {
		t.Fatalf("Models failed: %v", err)
	}
	if p := gw.Request(t, 0).Path; !strings.HasSuffix(p, "/models") || strings.Contains(p, "//") {
		t.Errorf("Unexpected path %s", p)
	}
}
