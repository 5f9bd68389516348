// Package llm provides the Ollama chat client used by the agent loop.
// Everything speaks the Ollama HTTP API (default http://localhost:11434);
// no cloud providers are wired in.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client is the interface the agent loop programs against.
type Client interface {
	// Chat sends the conversation and returns the complete assistant message.
	Chat(ctx context.Context, req ChatRequest) (*Message, error)

	// ChatStream sends the conversation and delivers response chunks to fn
	// as they arrive. Returning an error from fn aborts the stream.
	ChatStream(ctx context.Context, req ChatRequest, fn func(Chunk) error) error

	// ListModels returns the models available on the server.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Version returns the server version string.
	Version(ctx context.Context) (string, error)
}

// Message is a single conversation turn.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	Function FunctionCall `json:"function"`
}

// FunctionCall names a tool and carries its arguments.
type FunctionCall struct {
	Name      string    `json:"name"`
	Arguments Arguments `json:"arguments"`
}

// Arguments holds tool-call arguments. Ollama emits a JSON object, but some
// models return the arguments as a JSON-encoded string; both decode here.
type Arguments map[string]any

// UnmarshalJSON accepts either an object or a string containing JSON.
func (a *Arguments) UnmarshalJSON(data []byte) error {
	var asMap map[string]any
	if err := json.Unmarshal(data, &asMap); err == nil {
		*a = asMap
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("tool arguments are neither object nor string: %s", data)
	}
	if asString == "" {
		*a = Arguments{}
		return nil
	}
	if err := json.Unmarshal([]byte(asString), &asMap); err != nil {
		return fmt.Errorf("failed to parse string-encoded tool arguments: %w", err)
	}
	*a = asMap
	return nil
}

// ToolDefinition describes a callable tool in the request payload.
type ToolDefinition struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function portion of a tool definition.
type ToolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// ChatRequest configures a chat completion.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolDefinition
	Temperature float64
	MaxTokens   int
}

// Chunk is a streamed piece of the assistant response.
type Chunk struct {
	Content   string
	ToolCalls []ToolCall
	Done      bool
}

// ModelInfo describes one model reported by the server.
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}
