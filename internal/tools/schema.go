package tools

import (
	"context"
	"fmt"
	"strings"
)

// validTypes are the JSON schema types a Property may declare
var validTypes = map[string]bool{
	"object":  true,
	"array":   true,
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"null":    true,
}

// Property describes one parameter of a tool
type Property struct {
	Name        string
	Type        string
	Description string
	Enum        []interface{}
	Required    bool
	Default     interface{}

	Properties []Property // Members when Type is "object"
	Items      *Property  // Element schema when Type is "array"
}

// ObjectSchema builds a closed object schema
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// BuildSchema turns properties into a closed object schema. Properties with
// Required set are listed in "required" in declaration order.
func BuildSchema(props ...Property) (map[string]interface{}, error) {
	properties := make(map[string]interface{}, len(props))
	var required []string

	for _, p := range props {
		if p.Name == "" {
			return nil, fmt.Errorf("property name is empty")
		}
		if _, dup := properties[p.Name]; dup {
			return nil, fmt.Errorf("property %q declared twice", p.Name)
		}
		s, err := p.schema()
		if err != nil {
			return nil, err
		}
		properties[p.Name] = s
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return ObjectSchema(properties, required...), nil
}

// MustBuildSchema is BuildSchema for schemas known at compile time
func MustBuildSchema(props ...Property) map[string]interface{} {
	s, err := BuildSchema(props...)
	if err != nil {
		panic(err)
	}
	return s
}

func (p Property) schema() (map[string]interface{}, error) {
	if !validTypes[p.Type] {
		return nil, fmt.Errorf("property %q: invalid type %q (valid: object, array, string, number, integer, boolean, null)", p.Name, p.Type)
	}

	if p.Type == "object" {
		s, err := BuildSchema(p.Properties...)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		p.describe(s)
		return s, nil
	}

	s := map[string]interface{}{"type": p.Type}
	if p.Type == "array" && p.Items != nil {
		items, err := p.Items.schema()
		if err != nil {
			return nil, fmt.Errorf("property %q items: %w", p.Name, err)
		}
		s["items"] = items
	}
	p.describe(s)
	return s, nil
}

func (p Property) describe(s map[string]interface{}) {
	if p.Description != "" {
		s["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		s["enum"] = p.Enum
	}
	if p.Default != nil {
		s["default"] = p.Default
	}
}

// namespacedTool exposes a tool under a qualified function name
type namespacedTool struct {
	Tool
	name string
}

func (t namespacedTool) Name() string {
	return t.name
}

// Namespace qualifies every tool as "<owner>__<name>", dropping a trailing
// "Tool" from owner, so that tools from different owners never collide
func Namespace(owner string, tools ...Tool) []Tool {
	prefix := strings.TrimSuffix(owner, "Tool")
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if t == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, namespacedTool{Tool: t, name: prefix + "__" + t.Name()})
	}
	return out
}

// FuncTool adapts a plain function into a Tool
type FuncTool struct {
	name        string
	description string
	parameters  map[string]interface{}
	fn          func(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// NewFunc creates a tool that calls fn. parameters may be nil for a tool
// without arguments.
func NewFunc(name, description string, parameters map[string]interface{}, fn func(ctx context.Context, args map[string]interface{}) (interface{}, error)) *FuncTool {
	return &FuncTool{name: name, description: description, parameters: parameters, fn: fn}
}

func (f *FuncTool) Name() string                       { return f.name }
func (f *FuncTool) Description() string                { return f.description }
func (f *FuncTool) Parameters() map[string]interface{} { return f.parameters }

func (f *FuncTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return f.fn(ctx, args)
}
