package litellm

import (
	"github.com/user/litellm/internal/config"
	"github.com/user/litellm/internal/llmtypes"
	"github.com/user/litellm/internal/tools"
)

// Config is the client configuration. Zero-valued fields take the defaults
// of DefaultConfig.
type Config = config.Config

// RetryConfig configures transport retries
type RetryConfig = config.RetryConfig

// DefaultConfig returns a configuration with every default applied
func DefaultConfig() *Config {
	return config.Default()
}

// Message is one chat message
type Message = llmtypes.Message

// ToolCall is a call requested by the model
type ToolCall = llmtypes.ToolCall

// FunctionCall names the called function and carries its JSON arguments
type FunctionCall = llmtypes.FunctionCall

// ToolSchema is a tool definition as sent to the gateway
type ToolSchema = llmtypes.ToolSchema

// Message roles
const (
	RoleSystem    = llmtypes.RoleSystem
	RoleUser      = llmtypes.RoleUser
	RoleAssistant = llmtypes.RoleAssistant
	RoleTool      = llmtypes.RoleTool
)

var (
	SystemMessage    = llmtypes.SystemMessage
	UserMessage      = llmtypes.UserMessage
	AssistantMessage = llmtypes.AssistantMessage
	ToolMessage      = llmtypes.ToolMessage
)

// Tool is a function the model can call
type Tool = tools.Tool

// Property describes one tool parameter for BuildSchema
type Property = tools.Property

// ToolResult is the outcome of one executed tool call
type ToolResult = tools.Result

var (
	// NewFunc adapts a plain function into a Tool
	NewFunc = tools.NewFunc
	// Namespace qualifies tool names as <owner>__<name>
	Namespace = tools.Namespace
	// BuildSchema builds a closed object schema from properties
	BuildSchema     = tools.BuildSchema
	MustBuildSchema = tools.MustBuildSchema
	ObjectSchema    = tools.ObjectSchema
	// WorkspaceTools returns read-only file tools confined to a directory
	WorkspaceTools = tools.WorkspaceTools
)
