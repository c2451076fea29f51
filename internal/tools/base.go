package tools

import (
	"context"
	"fmt"
)

// ModelRetryError is returned by a tool for failures worth another attempt,
// such as a file that is being written concurrently
type ModelRetryError struct {
	Message string
}

func (e *ModelRetryError) Error() string {
	return e.Message
}

// Tool is a client-side function the model can call
type Tool interface {
	// Name returns the function name the model uses to call the tool
	Name() string

	// Description returns a description of what the tool does
	Description() string

	// Parameters returns the JSON schema of the arguments object, nil for none
	Parameters() map[string]interface{}

	// Execute runs the tool with the decoded arguments object
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// BaseTool provides retry handling for tools that embed it
type BaseTool struct {
	MaxRetries int
}

// NewBaseTool creates a new base tool
func NewBaseTool(maxRetries int) BaseTool {
	return BaseTool{
		MaxRetries: maxRetries,
	}
}

// RetryableExecute runs fn until it succeeds, returns an error other than
// *ModelRetryError, or MaxRetries attempts have been made
func (bt *BaseTool) RetryableExecute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	attempts := bt.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if _, ok := err.(*ModelRetryError); !ok {
			return nil, err
		}
	}

	return nil, fmt.Errorf("tool failed after %d attempts: %w", attempts, lastErr)
}
