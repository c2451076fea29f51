package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/user/litellm/internal/errors"
	"github.com/user/litellm/internal/llmtypes"
	"github.com/user/litellm/internal/logging"
	"github.com/user/litellm/internal/observability"
	"github.com/user/litellm/internal/worker_pool"
)

// Result is the outcome of one tool call. Every call produces a Result;
// failures are reported through Failed and Err with a textual Output.
type Result struct {
	ToolCallID   string
	FunctionName string
	Output       string
	Failed       bool
	Err          error
}

// Message returns the tool message answering the call
func (r Result) Message() llmtypes.Message {
	return llmtypes.ToolMessage(r.ToolCallID, r.FunctionName, r.Output)
}

type registeredTool struct {
	tool     Tool
	schema   map[string]interface{}
	resolved *jsonschema.Resolved // nil when the tool takes no parameters
	required []string
}

// Registry maps function names to tools for one completion request
type Registry struct {
	tools   map[string]*registeredTool
	order   []string
	logger  *logging.Logger
	metrics *observability.Metrics
	pool    *worker_pool.WorkerPool
}

// NewRegistry registers tools in order. It fails when a tool is nil, has an
// empty or duplicate name, or declares a parameter schema that cannot be
// resolved.
func NewRegistry(logger *logging.Logger, tools ...Tool) (*Registry, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &Registry{
		tools:  make(map[string]*registeredTool, len(tools)),
		logger: logger,
	}

	for i, t := range tools {
		if t == nil {
			return nil, errors.NewToolCallError(fmt.Sprintf("Tool %d is nil", i), nil)
		}
		name := t.Name()
		if name == "" {
			return nil, errors.NewToolCallError(fmt.Sprintf("Tool %d has an empty name", i), nil)
		}
		if _, dup := r.tools[name]; dup {
			return nil, errors.NewToolCallError(fmt.Sprintf("Tool function '%s' is registered twice", name), nil)
		}

		entry, err := newRegisteredTool(t)
		if err != nil {
			e := errors.NewToolCallError(fmt.Sprintf("Tool function '%s' has an invalid parameter schema", name), err)
			e.FunctionName = name
			return nil, e
		}
		r.tools[name] = entry
		r.order = append(r.order, name)
	}

	return r, nil
}

func newRegisteredTool(t Tool) (*registeredTool, error) {
	entry := &registeredTool{tool: t, schema: t.Parameters()}
	if entry.schema == nil {
		return entry, nil
	}

	// round-trip through JSON to get the typed schema
	data, err := json.Marshal(entry.schema)
	if err != nil {
		return nil, err
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, err
	}

	entry.resolved = resolved
	entry.required = schema.Required
	return entry, nil
}

// SetMetrics records tool executions on m
func (r *Registry) SetMetrics(m *observability.Metrics) {
	r.metrics = m
}

// SetWorkerPool sets the pool used by ExecuteAll for parallel calls
func (r *Registry) SetWorkerPool(p *worker_pool.WorkerPool) {
	r.pool = p
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns the registered function names in registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Schemas returns the tool definitions sent to the gateway, in registration order
func (r *Registry) Schemas() []llmtypes.ToolSchema {
	out := make([]llmtypes.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		entry := r.tools[name]
		out = append(out, llmtypes.ToolSchema{
			Type: llmtypes.ToolTypeFunction,
			Function: llmtypes.FunctionSchema{
				Name:        name,
				Description: entry.tool.Description(),
				Parameters:  entry.schema,
			},
		})
	}
	return out
}

// Execute runs one tool call. It never returns an error: argument problems,
// unknown functions and tool failures all produce a failed Result whose
// Output tells the model what went wrong.
func (r *Registry) Execute(ctx context.Context, call llmtypes.ToolCall) Result {
	name := call.Function.Name
	res := Result{ToolCallID: call.ID, FunctionName: name}

	output, err := r.execute(ctx, call)
	if err != nil {
		res.Failed = true
		res.Err = err
		res.Output = "Error executing tool: " + err.Error()
		r.logger.Error("Tool execution failed",
			logging.String("tool", name),
			logging.String("tool_call_id", call.ID),
			logging.Error(err),
		)
	} else {
		res.Output = output
		r.logger.Debug("Tool executed",
			logging.String("tool", name),
			logging.String("tool_call_id", call.ID),
		)
	}

	r.metrics.ToolExecuted(name, res.Failed)
	return res
}

func (r *Registry) execute(ctx context.Context, call llmtypes.ToolCall) (string, error) {
	name := call.Function.Name

	args, err := decodeArguments(call.Function.Arguments)
	if err != nil {
		return "", errors.NewInvalidArgumentsError(name, err)
	}

	entry, ok := r.tools[name]
	if !ok {
		e := errors.NewToolCallError(fmt.Sprintf("Tool function '%s' not available for this request", name), nil)
		e.FunctionName = name
		return "", e
	}

	if missing := missingRequired(entry.required, args); len(missing) > 0 {
		return "", fmt.Errorf("Missing required parameters: %s", strings.Join(missing, ", "))
	}

	if entry.resolved != nil {
		if err := entry.resolved.Validate(args); err != nil {
			return "", fmt.Errorf("Invalid parameters: %w", err)
		}
	}

	value, err := invoke(ctx, entry.tool, args)
	if err != nil {
		return "", err
	}
	return formatOutput(value)
}

// ExecuteAll runs calls and returns one Result per call, in call order. With
// parallel set the calls run concurrently on the worker pool.
func (r *Registry) ExecuteAll(ctx context.Context, calls []llmtypes.ToolCall, parallel bool) []Result {
	if !parallel || len(calls) < 2 {
		results := make([]Result, 0, len(calls))
		for _, call := range calls {
			results = append(results, r.Execute(ctx, call))
		}
		return results
	}

	pool := r.pool
	if pool == nil {
		pool = worker_pool.NewWorkerPool(len(calls))
	}

	tasks := make([]worker_pool.Task[Result], len(calls))
	for i, call := range calls {
		call := call
		tasks[i] = func(ctx context.Context) (Result, error) {
			return r.Execute(ctx, call), nil
		}
	}

	results := make([]Result, len(calls))
	for i, tr := range worker_pool.Run(ctx, pool, tasks) {
		if tr.Error != nil {
			// the task never ran, usually because ctx was cancelled
			results[i] = Result{
				ToolCallID:   calls[i].ID,
				FunctionName: calls[i].Function.Name,
				Output:       "Error executing tool: " + tr.Error.Error(),
				Failed:       true,
				Err:          tr.Error,
			}
			continue
		}
		results[i] = tr.Value
	}
	return results
}

func decodeArguments(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}

func missingRequired(required []string, args map[string]interface{}) []string {
	var missing []string
	for _, key := range required {
		if _, ok := args[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func invoke(ctx context.Context, t Tool, args map[string]interface{}) (value interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool panicked: %v", p)
		}
	}()
	return t.Execute(ctx, args)
}

func formatOutput(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool output: %w", err)
	}
	return string(data), nil
}
