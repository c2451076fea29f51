package litellm

import (
	"context"
	"net/http"

	"github.com/user/litellm/internal/errors"
	"github.com/user/litellm/internal/llm"
	"github.com/user/litellm/internal/llmtypes"
	"github.com/user/litellm/internal/logging"
	"github.com/user/litellm/internal/tools"
)

// CompletionRequest describes a chat completion
type CompletionRequest struct {
	Messages     []Message
	SystemPrompt string // Prepended as a system message when set
	Model        string // Defaults to Config.Model

	// Stream requests incremental delivery. OnDelta is then required and is
	// called on the calling goroutine with every text delta, in order. An
	// error returned by OnDelta aborts the completion.
	Stream  bool
	OnDelta func(delta string) error

	// Tools the model may call. Their calls are executed and answered
	// until the model replies without tool calls.
	Tools []Tool

	// OnToolResult, when set, sees every executed tool call
	OnToolResult func(ToolResult)

	// MaxToolRounds overrides Config.MaxToolRounds. Negative disables the
	// limit for this request.
	MaxToolRounds int

	// ParallelToolCalls runs the calls of one round concurrently. Results
	// are still answered in call order. Config.ParallelToolCalls enables it
	// for every request.
	ParallelToolCalls bool

	// Options are passed through to the gateway (temperature, max_tokens, ...)
	Options map[string]interface{}
}

// CompletionResult is the outcome of a completion including its tool rounds
type CompletionResult struct {
	// Text is the content of the final response. For streams it is the
	// concatenation of the deltas of the final round.
	Text string

	// Messages is the full conversation: the request messages, every
	// assistant and tool message of the tool rounds and the final answer.
	Messages []Message

	// Rounds counts the tool rounds that were executed
	Rounds int

	// RequestIDs holds the correlation id of every gateway request, in order
	RequestIDs []string
}

// Completion runs a chat completion and returns the final text
func (c *Client) Completion(ctx context.Context, req CompletionRequest) (string, error) {
	res, err := c.CompletionWithResult(ctx, req)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// CompletionWithResult runs a chat completion. Whenever a response asks for
// tool calls, the calls are executed, the assistant message and one tool
// message per call are appended to the conversation and the gateway is
// asked again. Requests are strictly sequential.
//
// Failures of individual tool calls are answered to the model as the tool
// output and never returned. On error the partial result is returned along
// with it.
func (c *Client) CompletionWithResult(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if req.Stream && req.OnDelta == nil {
		return nil, ErrStreamCallbackRequired
	}

	registry, err := tools.NewRegistry(c.logger, req.Tools...)
	if err != nil {
		return nil, err
	}
	registry.SetMetrics(c.metrics)
	if c.pool != nil {
		registry.SetWorkerPool(c.pool)
	}

	history := llmtypes.CloneMessages(req.Messages)
	if req.SystemPrompt != "" {
		history = append([]Message{SystemMessage(req.SystemPrompt)}, history...)
	}

	maxRounds := req.MaxToolRounds
	if maxRounds == 0 {
		maxRounds = c.config.MaxToolRounds
	}
	parallel := req.ParallelToolCalls || c.config.ParallelToolCalls
	model := firstNonEmpty(req.Model, c.config.Model)
	schemas := registry.Schemas()

	result := &CompletionResult{}
	for {
		payload := &llm.Payload{
			Messages: history,
			Model:    model,
			Stream:   llm.Bool(req.Stream),
			Tools:    schemas,
			Options:  req.Options,
		}

		var t *turn
		if req.Stream {
			t, err = c.streamTurn(ctx, payload, req.OnDelta)
		} else {
			t, err = c.bufferedTurn(ctx, payload)
		}
		if t != nil {
			result.RequestIDs = append(result.RequestIDs, t.requestID)
		}
		if err != nil {
			result.Messages = history
			return result, err
		}

		if len(t.message.ToolCalls) == 0 {
			history = append(history, t.message)
			result.Text = t.message.Content
			result.Messages = history
			return result, nil
		}

		if maxRounds > 0 && result.Rounds >= maxRounds {
			result.Messages = history
			return result, errors.NewToolRoundsExceededError(maxRounds)
		}

		c.logger.Debug("Tool calls requested",
			logging.String("request_id", t.requestID),
			logging.Int("calls", len(t.message.ToolCalls)),
			logging.Int("round", result.Rounds+1),
		)

		history = append(history, t.message)
		for _, r := range registry.ExecuteAll(ctx, t.message.ToolCalls, parallel) {
			if req.OnToolResult != nil {
				req.OnToolResult(r)
			}
			history = append(history, r.Message())
		}
		result.Rounds++
		c.metrics.ToolRound()
	}
}

// turn is the assistant answer of one gateway request
type turn struct {
	requestID string
	message   Message
}

func (c *Client) bufferedTurn(ctx context.Context, payload *llm.Payload) (*turn, error) {
	resp, err := c.gateway.Do(ctx, http.MethodPost, llm.ChatCompletionsEndpoint, payload, false)
	if err != nil {
		return nil, err
	}
	t := &turn{requestID: resp.RequestID}

	var out llm.ChatResponse
	if err := c.gateway.DecodeJSON(ctx, resp, &out); err != nil {
		return t, err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil {
		e := errors.NewInvalidResponseError(llm.ChatCompletionsEndpoint, "Invalid response format from server", nil)
		e.WithRequestID(resp.RequestID)
		return t, e
	}

	t.message = *out.Choices[0].Message
	t.message.Role = RoleAssistant
	return t, nil
}

func (c *Client) streamTurn(ctx context.Context, payload *llm.Payload, onDelta func(string) error) (*turn, error) {
	resp, err := c.gateway.Do(ctx, http.MethodPost, llm.ChatCompletionsEndpoint, payload, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	t := &turn{requestID: resp.RequestID}

	assembler := llm.NewStreamAssembler(c.logger.With(logging.String("request_id", resp.RequestID)), c.metrics)
	res, err := assembler.Assemble(ctx, resp.Body, func(ev llm.StreamEvent) error {
		if ev.Kind == llm.EventTextDelta {
			return onDelta(ev.Text)
		}
		return nil
	})
	if err != nil {
		if ge, ok := errors.AsGatewayError(err); ok && ge.RequestID == "" {
			ge.WithRequestID(resp.RequestID)
		}
		return t, err
	}

	t.message = AssistantMessage(res.Text, res.ToolCalls...)
	return t, nil
}
