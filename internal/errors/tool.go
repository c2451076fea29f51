package errors

import (
	"fmt"
)

// ToolCallError is raised for tool-calling failures that happen at the
// framework level: unparseable arguments, unusable tool definitions, or a
// tool loop that exceeds its round limit
type ToolCallError struct {
	*GatewayError
	FunctionName string
}

// NewToolCallError creates a new tool call error
func NewToolCallError(message string, cause error) *ToolCallError {
	return &ToolCallError{
		GatewayError: &GatewayError{
			Kind:     KindToolCall,
			Message:  message,
			Cause:    cause,
			ExitCode: ExitToolError,
		},
	}
}

// NewInvalidArgumentsError is raised when a tool call carries arguments that
// are not a JSON object
func NewInvalidArgumentsError(functionName string, cause error) *ToolCallError {
	return &ToolCallError{
		GatewayError: &GatewayError{
			Kind:     KindToolCall,
			Message:  "Invalid tool call arguments",
			Cause:    cause,
			ExitCode: ExitToolError,
		},
		FunctionName: functionName,
	}
}

// NewToolRoundsExceededError is raised when a completion keeps requesting
// tools past the configured round limit
func NewToolRoundsExceededError(maxRounds int) *ToolCallError {
	return &ToolCallError{
		GatewayError: &GatewayError{
			Kind:    KindToolCall,
			Message: fmt.Sprintf("Tool calling exceeded maximum rounds (%d)", maxRounds),
			Context: &ErrorContext{
				Operation: "Tool calling loop",
				Details: map[string]interface{}{
					"max_tool_rounds": maxRounds,
				},
				Suggestions: []string{
					"Check that tool outputs let the model reach an answer",
					"Raise max_tool_rounds or set it to 0 for no limit",
				},
			},
			ExitCode: ExitToolError,
		},
	}
}
