package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"opencodex/internal/llm"
	"opencodex/internal/logging"
)

// Registry holds the available tools. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Duplicate names are rejected.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}
	r.tools[tool.Name] = tool

	logging.ToolsDebug("registered tool: %s (category=%s)", tool.Name, tool.Category)
	return nil
}

// MustRegister registers a tool and panics on error.
// Use for static registration at startup.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not registered.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// All returns every registered tool, sorted by name.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions renders all tools as function definitions for a chat request.
func (r *Registry) Definitions() []llm.ToolDefinition {
	all := r.All()
	defs := make([]llm.ToolDefinition, 0, len(all))
	for _, tool := range all {
		defs = append(defs, tool.Definition())
	}
	return defs
}

// Execute runs a named tool and wraps the outcome in a Result.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) *Result {
	start := time.Now()
	result := &Result{ToolName: name}

	tool := r.Get(name)
	if tool == nil {
		result.Err = fmt.Errorf("%w: %s", ErrToolNotFound, name)
		return result
	}

	logging.Tools("executing tool: %s", name)
	result.Output, result.Err = execute(ctx, tool, args)
	result.DurationMs = time.Since(start).Milliseconds()

	if result.Err != nil {
		logging.Tools("tool %s failed after %dms: %v", name, result.DurationMs, result.Err)
	} else {
		logging.ToolsDebug("tool %s completed in %dms (%d bytes)", name, result.DurationMs, len(result.Output))
	}
	return result
}

// execute invokes the tool, converting a panic into an error so a bad
// argument combination from the model cannot take down the agent loop.
func execute(ctx context.Context, tool *Tool, args map[string]any) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Tools("tool %s panicked: %v", tool.Name, r)
			err = fmt.Errorf("tool %s panicked: %v", tool.Name, r)
		}
	}()
	return tool.Execute(ctx, args)
}
