// Package tools defines the tools the model can call and the registry that
// holds them. Tool schemas render directly into the function definitions
// sent with each chat request.
package tools

import (
	"context"

	"opencodex/internal/llm"
)

// Category classifies tools for approval gating and listing.
type Category string

const (
	// CategoryFile covers read/write/search filesystem operations.
	CategoryFile Category = "/file"

	// CategoryShell covers command execution through the sandbox.
	CategoryShell Category = "/shell"

	// CategoryPatch covers structured file edits via the patch envelope.
	CategoryPatch Category = "/patch"

	// CategoryGeneral is for tools that fit nowhere else.
	CategoryGeneral Category = "/general"
)

// Property describes a single parameter for the JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// Schema defines the JSON schema for tool arguments.
type Schema struct {
	Required   []string            `json:"required"`
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc runs a tool and returns its output.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is a callable capability exposed to the model.
type Tool struct {
	// Name is the unique identifier used in tool calls.
	Name string

	// Description is surfaced to the model in the function definition.
	Description string

	Category Category

	Execute ExecuteFunc

	Schema Schema

	// RequiresApproval marks tools that must pass the approval policy
	// before execution (shell, apply_patch, file writes).
	RequiresApproval bool
}

// Validate checks the tool definition.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Definition renders the tool as an Ollama function definition.
func (t *Tool) Definition() llm.ToolDefinition {
	params := map[string]any{
		"type":       "object",
		"required":   t.Schema.Required,
		"properties": t.Schema.Properties,
	}
	if t.Schema.Required == nil {
		params["required"] = []string{}
	}
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		},
	}
}

// Result wraps one tool execution with timing metadata.
type Result struct {
	ToolName   string
	Output     string
	Err        error
	DurationMs int64
}

// IsSuccess reports whether the tool ran without error.
func (r *Result) IsSuccess() bool { return r.Err == nil }
