package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/user/litellm/internal/errors"
	"github.com/user/litellm/internal/llmtypes"
	"github.com/user/litellm/internal/logging"
	"github.com/user/litellm/internal/observability"
)

// maxLoggedFrame bounds the copy of a malformed frame written to the log
const maxLoggedFrame = 512

// StreamEventKind identifies what an assembled stream event carries
type StreamEventKind int

const (
	// EventTextDelta carries one piece of assistant text
	EventTextDelta StreamEventKind = iota
	// EventToolCalls carries every tool call the stream requested
	EventToolCalls
)

// String returns the metrics label of the kind
func (k StreamEventKind) String() string {
	if k == EventToolCalls {
		return "tool_calls"
	}
	return "text_delta"
}

// StreamEvent is one unit delivered by the assembler
type StreamEvent struct {
	Kind      StreamEventKind
	Text      string              // Set for EventTextDelta
	ToolCalls []llmtypes.ToolCall // Set for EventToolCalls
}

// streamChunk is one decoded "data:" frame of a chat completion stream
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content   *string         `json:"content"`
			ToolCalls []toolCallDelta `json:"tool_calls"`
		} `json:"delta"`
	} `json:"choices"`
	Error json.RawMessage `json:"error"`
}

type toolCallDelta struct {
	Index    *int   `json:"index"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string  `json:"name"`
		Arguments *string `json:"arguments"`
	} `json:"function"`
}

// toolCallFragment accumulates the pieces of one streamed tool call
type toolCallFragment struct {
	id           string
	index        int
	typ          string
	functionName string
	arguments    strings.Builder
}

// StreamBuffer holds the state of one streaming response: the text seen so
// far and the tool-call fragments keyed by call id
type StreamBuffer struct {
	content   strings.Builder
	fragments map[string]*toolCallFragment
	order     []string // call ids in first-seen order
	currentID string

	logger  *logging.Logger
	metrics *observability.Metrics
}

// NewStreamBuffer creates an empty buffer. logger and metrics may be nil.
func NewStreamBuffer(logger *logging.Logger, metrics *observability.Metrics) *StreamBuffer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &StreamBuffer{
		fragments: make(map[string]*toolCallFragment),
		logger:    logger,
		metrics:   metrics,
	}
}

// Content returns the text accumulated so far
func (b *StreamBuffer) Content() string {
	return b.content.String()
}

// HasToolCalls reports whether tool-call fragments are pending
func (b *StreamBuffer) HasToolCalls() bool {
	return len(b.order) > 0
}

// Feed processes the data of one SSE frame and returns the events it produced.
// Malformed frames are logged and skipped. A frame carrying a gateway error
// object is returned as a classified error.
func (b *StreamBuffer) Feed(data []byte) ([]StreamEvent, error) {
	if IsSSEDone(data) {
		return b.Flush(), nil
	}

	var chunk streamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		b.metrics.MalformedFrame()
		b.logger.Warn("Skipping malformed stream frame",
			logging.Error(err),
			logging.String("frame", truncateFrame(data)),
		)
		return nil, nil
	}

	if len(chunk.Error) > 0 && !bytes.Equal(chunk.Error, []byte("null")) {
		return nil, classifyStreamError(data)
	}

	if len(chunk.Choices) == 0 {
		return nil, nil
	}
	delta := chunk.Choices[0].Delta

	if delta.Content != nil && *delta.Content != "" {
		b.content.WriteString(*delta.Content)
		return []StreamEvent{{Kind: EventTextDelta, Text: *delta.Content}}, nil
	}

	for _, tc := range delta.ToolCalls {
		b.mergeToolCall(tc)
	}
	return nil, nil
}

// mergeToolCall folds one tool-call delta into the fragment of the most
// recently seen call id. Continuation chunks usually omit the id, so a chunk
// without one attaches to whichever call came last. Providers that interleave
// several calls in one stream defeat this rule.
func (b *StreamBuffer) mergeToolCall(tc toolCallDelta) {
	if tc.ID != "" {
		b.currentID = tc.ID
	}
	if b.currentID == "" {
		b.logger.Debug("Ignoring tool call fragment without an id")
		return
	}

	frag, ok := b.fragments[b.currentID]
	if !ok {
		frag = &toolCallFragment{id: b.currentID}
		if tc.Index != nil {
			frag.index = *tc.Index
		}
		b.fragments[b.currentID] = frag
		b.order = append(b.order, b.currentID)
	}

	if tc.Type != "" {
		frag.typ = tc.Type
	}
	if tc.Function.Name != "" {
		frag.functionName = tc.Function.Name
	}
	if tc.Function.Arguments != nil {
		frag.arguments.WriteString(*tc.Function.Arguments)
	}
}

// Flush finalizes pending fragments into one EventToolCalls batch and clears
// the fragment state. It returns nil when nothing is pending.
func (b *StreamBuffer) Flush() []StreamEvent {
	if !b.HasToolCalls() {
		return nil
	}

	calls := make([]llmtypes.ToolCall, 0, len(b.order))
	for _, id := range b.order {
		frag := b.fragments[id]
		typ := frag.typ
		if typ == "" {
			typ = llmtypes.ToolTypeFunction
		}
		args := frag.arguments.String()
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		calls = append(calls, llmtypes.ToolCall{
			ID:   frag.id,
			Type: typ,
			Function: llmtypes.FunctionCall{
				Name:      frag.functionName,
				Arguments: args,
			},
		})
	}

	b.fragments = make(map[string]*toolCallFragment)
	b.order = nil
	b.currentID = ""

	return []StreamEvent{{Kind: EventToolCalls, ToolCalls: calls}}
}

// classifyStreamError turns an error frame into the same error the HTTP path
// would have produced for that body
func classifyStreamError(data []byte) error {
	status := 500
	if detail, ok := errors.ParseErrorBody(data); ok {
		if s, ok := detail.StatusFromCode(); ok {
			status = s
		}
	}
	return errors.ClassifyResponse(status, data)
}

func truncateFrame(data []byte) string {
	if len(data) <= maxLoggedFrame {
		return string(data)
	}
	return string(data[:maxLoggedFrame]) + "..."
}

// StreamResult summarizes one assembled stream
type StreamResult struct {
	Text      string              // Concatenation of every text delta
	ToolCalls []llmtypes.ToolCall // Batch emitted at the end of the stream, if any
	Done      bool                // The [DONE] marker was received
}

// StreamAssembler turns a chat completion SSE body into stream events
type StreamAssembler struct {
	logger  *logging.Logger
	metrics *observability.Metrics
}

// NewStreamAssembler creates an assembler. logger and metrics may be nil.
func NewStreamAssembler(logger *logging.Logger, metrics *observability.Metrics) *StreamAssembler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &StreamAssembler{logger: logger, metrics: metrics}
}

// Assemble reads body until [DONE] and hands every event to emit in arrival
// order. A body that ends cleanly without [DONE] is flushed as if the marker
// had arrived. Read failures are classified as connection or timeout errors;
// an error returned by emit stops the stream and is returned unchanged.
func (a *StreamAssembler) Assemble(ctx context.Context, body io.Reader, emit func(StreamEvent) error) (*StreamResult, error) {
	defer a.metrics.StreamOpened()()

	parser := NewSSEParser(body)
	buffer := NewStreamBuffer(a.logger, a.metrics)
	result := &StreamResult{}

	deliver := func(events []StreamEvent) error {
		for _, ev := range events {
			a.metrics.StreamEvent(ev.Kind.String())
			if ev.Kind == EventToolCalls {
				result.ToolCalls = append(result.ToolCalls, ev.ToolCalls...)
			}
			if emit != nil {
				if err := emit(ev); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, errors.ClassifyTransportError(ChatCompletionsEndpoint, err)
		}

		event, err := parser.NextEvent()
		if err == io.EOF {
			if buffer.HasToolCalls() {
				a.logger.Warn("Stream ended without [DONE], flushing pending tool calls")
			}
			result.Text = buffer.Content()
			return result, deliver(buffer.Flush())
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			result.Text = buffer.Content()
			return result, errors.ClassifyTransportError(ChatCompletionsEndpoint, err)
		}

		done := IsSSEDone(event.Data)

		events, err := buffer.Feed(event.Data)
		if err != nil {
			result.Text = buffer.Content()
			return result, err
		}
		if err := deliver(events); err != nil {
			result.Text = buffer.Content()
			return result, err
		}

		if done {
			result.Done = true
			result.Text = buffer.Content()
			return result, nil
		}
	}
}
