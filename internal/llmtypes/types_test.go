package llmtypes

import (
	"encoding/json"
	"testing"
)

func TestMessage_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "user",
			msg:  UserMessage("hi"),
			want: `{"role":"user","content":"hi"}`,
		},
		{
			name: "assistant with tool calls and no text",
			msg: AssistantMessage("", ToolCall{
				ID:       "call_1",
				Type:     ToolTypeFunction,
				Function: FunctionCall{Name: "weather", Arguments: `{"city":"Oslo"}`},
			}),
			want: `{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"weather","arguments":"{\"city\":\"Oslo\"}"}}]}`,
		},
		{
			name: "assistant with empty answer",
			msg:  AssistantMessage(""),
			want: `{"role":"assistant","content":""}`,
		},
		{
			name: "tool result",
			msg:  ToolMessage("call_1", "weather", "sunny"),
			want: `{"role":"tool","content":"sunny","name":"weather","tool_call_id":"call_1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMessage_UnmarshalNullContent(t *testing.T) {
	var m Message
	data := `{"role":"assistant","content":null,"tool_calls":[{"id":"c","type":"function","function":{"name":"f","arguments":"{}"}}]}`
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m.Content != "" {
		t.Errorf("Expected empty content, got %q", m.Content)
	}
	if len(m.ToolCalls) != 1 || m.ToolCalls[0].Function.Name != "f" {
		t.Errorf("Unexpected tool calls: %+v", m.ToolCalls)
	}
}

func TestCloneMessages(t *testing.T) {
	original := []Message{
		UserMessage("q"),
		AssistantMessage("", ToolCall{ID: "a", Type: ToolTypeFunction}),
	}

	clone := CloneMessages(original)
	clone[0].Content = "changed"
	clone[1].ToolCalls[0].ID = "b"
	_ = append(clone, UserMessage("more"))

	if original[0].Content != "q" {
		t.Error("Clone shares message values with the original")
	}
	if original[1].ToolCalls[0].ID != "a" {
		t.Error("Clone shares tool call slices with the original")
	}
	if CloneMessages(nil) != nil {
		t.Error("Expected nil clone of nil slice")
	}
}
