package llm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"
)

// SSEEvent represents a single Server-Sent Event
type SSEEvent struct {
	Event string // Event type (optional, empty if not specified)
	Data  []byte // Data lines joined by '\n'
	ID    string // Event ID (optional)
}

// SSEParser decodes a Server-Sent Events stream into events
type SSEParser struct {
	reader    *bufio.Reader
	buffer    *bytes.Buffer // Accumulates data for the current event
	eventType string        // Current event type
	eventID   string        // Current event ID
	hasData   bool          // A data field was seen for the current event
	retry     time.Duration // Last reconnection delay announced by the server
}

// NewSSEParser creates a new SSE parser
func NewSSEParser(reader io.Reader) *SSEParser {
	return &SSEParser{
		reader: bufio.NewReader(reader),
		buffer: &bytes.Buffer{},
	}
}

// NextEvent reads the next SSE event from the stream.
// Returns io.EOF when the stream is complete and io.ErrUnexpectedEOF (wrapped)
// when the stream ends mid-event.
func (p *SSEParser) NextEvent() (SSEEvent, error) {
	for {
		line, err := p.reader.ReadBytes('\n')
		if err != nil && len(line) == 0 {
			if p.pending() {
				return SSEEvent{}, fmt.Errorf("stream ended mid-event: %w", io.ErrUnexpectedEOF)
			}
			return SSEEvent{}, err
		}

		// Remove the line terminator (\n or \r\n)
		line = bytes.TrimSuffix(line, []byte{'\n'})
		line = bytes.TrimSuffix(line, []byte{'\r'})

		// Empty line dispatches the event
		if len(line) == 0 {
			if p.pending() {
				event := SSEEvent{
					Event: p.eventType,
					Data:  append([]byte(nil), p.buffer.Bytes()...),
					ID:    p.eventID,
				}
				p.reset()
				return event, nil
			}
			continue
		}

		p.parseField(line)

		// the last line had no terminator; whatever it started is incomplete
		if err != nil {
			if p.pending() {
				return SSEEvent{}, fmt.Errorf("stream ended mid-event: %w", io.ErrUnexpectedEOF)
			}
			return SSEEvent{}, err
		}
	}
}

func (p *SSEParser) parseField(line []byte) {
	// Comments start with ':'
	if line[0] == ':' {
		return
	}

	field, value := line, []byte(nil)
	if idx := bytes.IndexByte(line, ':'); idx != -1 {
		field, value = line[:idx], line[idx+1:]
		// A single leading space is not part of the value
		value = bytes.TrimPrefix(value, []byte{' '})
	}

	switch string(field) {
	case "event":
		p.eventType = string(value)
	case "data":
		if p.hasData {
			p.buffer.WriteByte('\n')
		}
		p.buffer.Write(value)
		p.hasData = true
	case "id":
		p.eventID = string(value)
	case "retry":
		if ms, err := strconv.Atoi(string(value)); err == nil && ms >= 0 {
			p.retry = time.Duration(ms) * time.Millisecond
		}
	}
	// Unknown fields are ignored
}

func (p *SSEParser) pending() bool {
	return p.hasData || p.eventType != ""
}

// reset clears the parser state for the next event
func (p *SSEParser) reset() {
	p.buffer.Reset()
	p.eventType = ""
	p.eventID = ""
	p.hasData = false
}

// Retry returns the reconnection delay last announced by the server, zero if none
func (p *SSEParser) Retry() time.Duration {
	return p.retry
}

// IsSSEDone checks if the SSE data is the [DONE] terminal marker
func IsSSEDone(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("[DONE]"))
}
