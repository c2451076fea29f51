package llm

import (
	"encoding/json"

	"github.com/user/litellm/internal/llmtypes"
)

// Gateway endpoints, joined onto the configured base URL
const (
	ModelsEndpoint          = "/models"
	ChatCompletionsEndpoint = "/chat/completions"
	EmbeddingsEndpoint      = "/embeddings"
	ImagesEndpoint          = "/images/generations"
)

// Payload is the body of a gateway request. Typed fields cover the keys the
// client itself sets; Options carries passthrough parameters such as
// temperature or max_tokens.
type Payload struct {
	Messages   []llmtypes.Message
	Input      interface{} // string or []string
	Prompt     string
	Model      string
	Stream     *bool // nil means absent, false is sent
	Tools      []llmtypes.ToolSchema
	Dimensions int
	Options    map[string]interface{}
}

// Sparse returns the payload as a map holding only the keys that carry a
// value. Option keys never override a typed field, and options whose value
// is nil are dropped.
func (p *Payload) Sparse() map[string]interface{} {
	out := make(map[string]interface{}, len(p.Options)+7)

	for k, v := range p.Options {
		if v == nil {
			continue
		}
		out[k] = v
	}

	if p.Messages != nil {
		out["messages"] = p.Messages
	}
	if p.Input != nil {
		out["input"] = p.Input
	}
	if p.Prompt != "" {
		out["prompt"] = p.Prompt
	}
	if p.Model != "" {
		out["model"] = p.Model
	}
	if p.Stream != nil {
		out["stream"] = *p.Stream
	}
	if len(p.Tools) > 0 {
		out["tools"] = p.Tools
	}
	if p.Dimensions > 0 {
		out["dimensions"] = p.Dimensions
	}

	return out
}

// MarshalJSON encodes the sparse form of the payload
func (p *Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Sparse())
}

// Bool returns a pointer to b, for Payload.Stream
func Bool(b bool) *bool {
	return &b
}

// ChatResponse is a buffered /chat/completions response
type ChatResponse struct {
	ID      string               `json:"id"`
	Model   string               `json:"model"`
	Choices []ChatChoice         `json:"choices"`
	Usage   *llmtypes.TokenUsage `json:"usage,omitempty"`
}

// ChatChoice is one entry of ChatResponse.Choices
type ChatChoice struct {
	Index        int               `json:"index"`
	Message      *llmtypes.Message `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

// EmbeddingResponse is a /embeddings response
type EmbeddingResponse struct {
	Model string `json:"model"`
	Data  []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage *llmtypes.TokenUsage `json:"usage,omitempty"`
}

// ImageResponse is an /images/generations response
type ImageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// ModelsResponse is a /models response
type ModelsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		OwnedBy string `json:"owned_by"`
	} `json:"data"`
}
