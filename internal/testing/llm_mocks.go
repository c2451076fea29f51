package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func WriteSSE(w http.ResponseWriter, event, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func WriteSSEDone(w http.ResponseWriter) {
	fmt.Fprintln(w, "data: [DONE]")
	fmt.Fprintln(w)
}

func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
}

func SetJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}

type MockServerOption func(*mockServerConfig)

type mockServerConfig struct {
	validateAuth bool
	authHeader   string
	authValue    string
}

func WithAuthValidation(header, value string) MockServerOption {
	return func(cfg *mockServerConfig) {
		cfg.validateAuth = true
		cfg.authHeader = header
		cfg.authValue = value
	}
}

func NewMockServer(t *testing.T, handler http.HandlerFunc, opts ...MockServerOption) *httptest.Server {
	t.Helper()
	cfg := &mockServerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	wrappedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.validateAuth {
			if r.Header.Get(cfg.authHeader) != cfg.authValue {
				t.Errorf("Expected %s header '%s', got '%s'", cfg.authHeader, cfg.authValue, r.Header.Get(cfg.authHeader))
			}
		}
		handler(w, r)
	})

	return httptest.NewServer(wrappedHandler)
}

// ErrorHandler answers every request with status and body
func ErrorHandler(status int, errorBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetJSONHeaders(w)
		w.WriteHeader(status)
		w.Write([]byte(errorBody))
	}
}

func UnauthorizedHandler(errorBody string) http.HandlerFunc {
	return ErrorHandler(http.StatusUnauthorized, errorBody)
}

func RateLimitHandler(errorBody string) http.HandlerFunc {
	return ErrorHandler(http.StatusTooManyRequests, errorBody)
}

func InternalErrorHandler(errorBody string) http.HandlerFunc {
	return ErrorHandler(http.StatusInternalServerError, errorBody)
}

// JSONHandler answers every request with a 200 and body
func JSONHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetJSONHeaders(w)
		w.Write([]byte(body))
	}
}

// StreamChunk is a chat completion chunk carrying a text delta
func StreamChunk(content string, finishReason string) string {
	fr := "null"
	if finishReason != "" {
		fr = fmt.Sprintf(`"%s"`, finishReason)
	}
	deltaContent := ""
	if content != "" {
		deltaContent = fmt.Sprintf(`"content":%s`, quote(content))
	}
	return fmt.Sprintf(`{"id":"chatcmpl-123","object":"chat.completion.chunk","created":1234567890,"model":"gpt-4o","choices":[{"index":0,"delta":{%s},"finish_reason":%s}]}`, deltaContent, fr)
}

// ToolCallChunk is a chat completion chunk carrying one tool-call fragment.
// id and name are left out of the fragment when empty.
func ToolCallChunk(index int, id, name, args string) string {
	idPart := ""
	if id != "" {
		idPart = fmt.Sprintf(`"id":"%s","type":"function",`, id)
	}
	namePart := ""
	if name != "" {
		namePart = fmt.Sprintf(`"name":"%s",`, name)
	}
	return fmt.Sprintf(`{"id":"chatcmpl-123","object":"chat.completion.chunk","created":1234567890,"model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":%d,%s"function":{%s"arguments":%s}}]},"finish_reason":null}]}`, index, idPart, namePart, quote(args))
}

// ErrorChunk is a stream frame carrying a gateway error object
func ErrorChunk(message, errType, code string) string {
	return fmt.Sprintf(`{"error":{"message":%s,"type":%s,"code":%s}}`, quote(message), quote(errType), quote(code))
}

// StreamHandler writes frames as SSE data events followed by [DONE]
func StreamHandler(frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetSSEHeaders(w)
		for _, f := range frames {
			WriteSSE(w, "", f)
		}
		WriteSSEDone(w)
	}
}

// TextStreamHandler streams content as one delta per word
func TextStreamHandler(content string) http.HandlerFunc {
	var frames []string
	for _, word := range strings.SplitAfter(content, " ") {
		if word == "" {
			continue
		}
		frames = append(frames, StreamChunk(word, ""))
	}
	frames = append(frames, StreamChunk("", "stop"))
	return StreamHandler(frames...)
}

// ToolCall describes one call in a buffered tool-call response
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatResponse is a buffered chat completion whose message has content
func ChatResponse(content string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-123","object":"chat.completion","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, quote(content))
}

// ToolCallResponse is a buffered chat completion requesting calls
func ToolCallResponse(calls ...ToolCall) string {
	parts := make([]string, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, fmt.Sprintf(`{"id":"%s","type":"function","function":{"name":"%s","arguments":%s}}`, c.ID, c.Name, quote(c.Arguments)))
	}
	return fmt.Sprintf(`{"id":"chatcmpl-123","object":"chat.completion","model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":null,"tool_calls":[%s]},"finish_reason":"tool_calls"}]}`, strings.Join(parts, ","))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

type RetryHandler struct {
	mu             sync.Mutex
	callCount      int
	failUntil      int
	failStatusCode int
	failBody       string
	successHandler http.HandlerFunc
}

func NewRetryHandler(failUntil, failStatusCode int, failBody string, successHandler http.HandlerFunc) *RetryHandler {
	return &RetryHandler{
		failUntil:      failUntil,
		failStatusCode: failStatusCode,
		failBody:       failBody,
		successHandler: successHandler,
	}
}

func (h *RetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.callCount++
	fail := h.callCount <= h.failUntil
	h.mu.Unlock()

	if fail {
		w.WriteHeader(h.failStatusCode)
		w.Write([]byte(h.failBody))
		return
	}
	h.successHandler(w, r)
}

func (h *RetryHandler) CallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.callCount
}

// RecordedRequest is one request seen by a FakeGateway
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]interface{}
	Raw    string
}

// Messages returns the decoded "messages" array of the request body
func (r RecordedRequest) Messages() []map[string]interface{} {
	raw, _ := r.Body["messages"].([]interface{})
	out := make([]map[string]interface{}, 0, len(raw))
	for _, m := range raw {
		if mm, ok := m.(map[string]interface{}); ok {
			out = append(out, mm)
		}
	}
	return out
}

// FakeGateway is an httptest server that answers the nth request with the
// nth handler (the last handler repeats) and records every request
type FakeGateway struct {
	*httptest.Server

	mu       sync.Mutex
	handlers []http.HandlerFunc
	requests []RecordedRequest
}

// NewFakeGateway starts a fake gateway that is closed when the test ends
func NewFakeGateway(t *testing.T, handlers ...http.HandlerFunc) *FakeGateway {
	t.Helper()
	g := &FakeGateway{handlers: handlers}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Raw:    string(raw),
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &rec.Body); err != nil {
				t.Errorf("Fake gateway received invalid JSON: %v", err)
			}
		}

		g.mu.Lock()
		n := len(g.requests)
		g.requests = append(g.requests, rec)
		g.mu.Unlock()

		if len(g.handlers) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if n >= len(g.handlers) {
			n = len(g.handlers) - 1
		}
		g.handlers[n](w, r)
	}))
	t.Cleanup(g.Server.Close)
	return g
}

// Requests returns a copy of the recorded requests
func (g *FakeGateway) Requests() []RecordedRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]RecordedRequest(nil), g.requests...)
}

// Request returns the ith recorded request
func (g *FakeGateway) Request(t *testing.T, i int) RecordedRequest {
	t.Helper()
	reqs := g.Requests()
	if i >= len(reqs) {
		t.Fatalf("Expected at least %d requests, got %d", i+1, len(reqs))
	}
	return reqs[i]
}
