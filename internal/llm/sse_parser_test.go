package llm

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// readAll drains the parser and returns the data of every event up to EOF
func readAll(t *testing.T, parser *SSEParser) []SSEEvent {
	t.Helper()
	var events []SSEEvent
	for {
		event, err := parser.NextEvent()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		events = append(events, event)
	}
}

func TestSSEParser_ChatCompletionStream(t *testing.T) {
	input := ": connected\n\n" +
		"data: {\"id\":\"chatcmpl-1\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"Hel\"}}]}\n\n" +
		"data: {\"id\":\"chatcmpl-1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"}}]}\n\n" +
		": keep-alive\n\n" +
		"data: {\"id\":\"chatcmpl-1\",\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n" +
		"data: [DONE]\n\n"

	events := readAll(t, NewSSEParser(strings.NewReader(input)))
	if len(events) != 4 {
		t.Fatalf("Expected 4 events (comments skipped), got %d", len(events))
	}

	var text strings.Builder
	for _, ev := range events[:3] {
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(ev.Data, &chunk); err != nil {
			t.Fatalf("Expected JSON chunk, got %q: %v", ev.Data, err)
		}
		text.WriteString(chunk.Choices[0].Delta.Content)
	}
	if text.String() != "Hello" {
		t.Errorf("Expected 'Hello', got %q", text.String())
	}
	if !IsSSEDone(events[3].Data) {
		t.Errorf("Expected [DONE] last, got %q", events[3].Data)
	}
}

func TestSSEParser_ToolCallChunks(t *testing.T) {
	input := "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"type\":\"function\",\"function\":{\"name\":\"get_status\",\"arguments\":\"\"}}]}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"{\\\"use\"}}]}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"r_id\\\":\\\"u1\\\"}\"}}]}}]}\n\n" +
		"data: [DONE]\n\n"

	events := readAll(t, NewSSEParser(strings.NewReader(input)))
	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}

	var args strings.Builder
	for _, ev := range events[:3] {
		var chunk struct {
			Choices []struct {
				Delta struct {
					ToolCalls []struct {
						Function struct {
							Arguments string `json:"arguments"`
						} `json:"function"`
					} `json:"tool_calls"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(ev.Data, &chunk); err != nil {
			t.Fatalf("Expected JSON chunk, got %q: %v", ev.Data, err)
		}
		args.WriteString(chunk.Choices[0].Delta.ToolCalls[0].Function.Arguments)
	}
	if args.String() != `{"user_id":"u1"}` {
		t.Errorf("Expected reassembled arguments, got %q", args.String())
	}
}

func TestSSEParser_ErrorEvent(t *testing.T) {
	input := "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n" +
		"event: error\n" +
		"data: {\"error\":{\"message\":\"Rate limit reached\",\"type\":\"rate_limit_error\",\"code\":\"429\"}}\n\n"

	events := readAll(t, NewSSEParser(strings.NewReader(input)))
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Event != "" {
		t.Errorf("Expected untyped chunk, got event %q", events[0].Event)
	}
	if events[1].Event != "error" {
		t.Errorf("Expected event type 'error', got %q", events[1].Event)
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(events[1].Data, &body); err != nil {
		t.Fatalf("Expected JSON error body, got %q: %v", events[1].Data, err)
	}
	if body.Error.Message != "Rate limit reached" {
		t.Errorf("Expected error message, got %+v", body.Error)
	}
}

func TestSSEParser_MultiLineJSONData(t *testing.T) {
	input := "id: chatcmpl-7\n" +
		"data: {\"choices\":[\n" +
		"data:   {\"delta\":{\"content\":\"spread\"}}\n" +
		"data: ]}\n\n"

	events := readAll(t, NewSSEParser(strings.NewReader(input)))
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].ID != "chatcmpl-7" {
		t.Errorf("Expected ID 'chatcmpl-7', got %q", events[0].ID)
	}

	want := "{\"choices\":[\n  {\"delta\":{\"content\":\"spread\"}}\n]}"
	if string(events[0].Data) != want {
		t.Errorf("Expected data lines joined by newlines, got %q", events[0].Data)
	}
	if !json.Valid(events[0].Data) {
		t.Errorf("Expected joined data to be valid JSON, got %q", events[0].Data)
	}
}

func TestSSEParser_Framing(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"crlf line endings", "data: {\"a\":1}\r\n\r\ndata: [DONE]\r\n\r\n", []string{`{"a":1}`, "[DONE]"}},
		{"blank lines between frames", "data: one\n\n\n\ndata: two\n\n", []string{"one", "two"}},
		{"single leading space stripped", "data:  indented\n\n", []string{" indented"}},
		{"no space after colon", "data:[DONE]\n\n", []string{"[DONE]"}},
		{"unknown fields ignored", "foo: bar\nnoise without colon\ndata: kept\n\n", []string{"kept"}},
		{"field without value", "data\ndata: x\n\n", []string{"\nx"}},
		{"id alone dispatches nothing", "id: 456\n\ndata: next\n\n", []string{"next"}},
		{"only comments", ": ping\n: ping\n\n", nil},
		{"only blank lines", "\n\n\n", nil},
		{"empty stream", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := readAll(t, NewSSEParser(strings.NewReader(tt.input)))
			if len(events) != len(tt.want) {
				t.Fatalf("Expected %d events, got %d", len(tt.want), len(events))
			}
			for i, ev := range events {
				if string(ev.Data) != tt.want[i] {
					t.Errorf("Event %d: expected %q, got %q", i, tt.want[i], ev.Data)
				}
			}
		})
	}
}

func TestSSEParser_RetryField(t *testing.T) {
	parser := NewSSEParser(strings.NewReader("retry: 10000\ndata: {}\n\n"))

	if _, err := parser.NextEvent(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if parser.Retry() != 10*time.Second {
		t.Errorf("Expected retry 10s, got %v", parser.Retry())
	}

	parser = NewSSEParser(strings.NewReader("retry: soon\ndata: {}\n\n"))
	if _, err := parser.NextEvent(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if parser.Retry() != 0 {
		t.Errorf("Expected invalid retry to be ignored, got %v", parser.Retry())
	}
}

func TestSSEParser_ConnectionDroppedMidFrame(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"data without terminator", "data: {\"choices\":[{\"delta\":{\"content\":\"cut"},
		{"typed event without terminator", "event: error\ndata: {\"error\":"},
		{"frame without blank line", "data: {\"a\":1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSSEParser(strings.NewReader(tt.input)).NextEvent()
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("Expected ErrUnexpectedEOF, got %v", err)
			}
		})
	}
}

func TestSSEParser_EOFAfterCompleteFrame(t *testing.T) {
	parser := NewSSEParser(strings.NewReader("data: [DONE]\n\n: keep-alive"))

	if _, err := parser.NextEvent(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// a trailing comment without newline starts no event
	if _, err := parser.NextEvent(); err != io.EOF {
		t.Errorf("Expected EOF, got %v", err)
	}
}

func TestSSEParser_LargeChunk(t *testing.T) {
	content := strings.Repeat("token ", 20000)
	frame, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{{"delta": map[string]string{"content": content}}},
	})
	if err != nil {
		t.Fatalf("Failed to build frame: %v", err)
	}

	events := readAll(t, NewSSEParser(strings.NewReader("data: "+string(frame)+"\n\n")))
	if len(events) != 1 || len(events[0].Data) != len(frame) {
		t.Fatalf("Expected one frame of %d bytes, got %d events", len(frame), len(events))
	}
}

func TestSSEParser_EventDataNotShared(t *testing.T) {
	parser := NewSSEParser(strings.NewReader("data: first\n\ndata: second\n\n"))

	first, _ := parser.NextEvent()
	_, _ = parser.NextEvent()

	if string(first.Data) != "first" {
		t.Errorf("Expected earlier event to keep its data, got '%s'", string(first.Data))
	}
}

func TestIsSSEDone(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected bool
	}{
		{"DONE marker", "[DONE]", true},
		{"DONE with whitespace", " [DONE]\n", true},
		{"chat chunk", `{"choices":[{"delta":{"content":"[DONE]"}}]}`, false},
		{"empty data", "", false},
		{"almost DONE", "[DONE]extra", false},
		{"lowercase", "[done]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSSEDone([]byte(tt.data)); got != tt.expected {
				t.Errorf("IsSSEDone(%q) = %v, want %v", tt.data, got, tt.expected)
			}
		})
	}
}
