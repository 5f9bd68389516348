// Package agent drives the chat loop: it streams model responses, routes
// tool calls through the approval policy, executes them, and feeds results
// back until the model answers without requesting tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"opencodex/internal/approval"
	"opencodex/internal/diff"
	"opencodex/internal/llm"
	"opencodex/internal/logging"
	"opencodex/internal/patch"
	"opencodex/internal/tools"
)

// DefaultMaxIterations bounds tool-call rounds within a single Run.
const DefaultMaxIterations = 10

// ErrMaxIterations is reported when the model keeps requesting tools
// past the iteration budget.
var ErrMaxIterations = errors.New("agent reached maximum tool iterations")

// Options configure an Agent.
type Options struct {
	Client   llm.Client
	Registry *tools.Registry
	Policy   *approval.Policy
	Model    string
	Cwd      string

	// SystemPrompt seeds the conversation (instructions plus project doc).
	SystemPrompt string

	// MaxIterations overrides DefaultMaxIterations when positive.
	MaxIterations int
}

// Agent holds the conversation state for one session. Not safe for
// concurrent Runs; the chat UI serializes turns.
type Agent struct {
	client        llm.Client
	registry      *tools.Registry
	policy        *approval.Policy
	model         string
	cwd           string
	maxIterations int

	history       []llm.Message
	alwaysAllowed map[string]bool
}

// New creates an agent with the system prompt as the first message.
func New(opts Options) *Agent {
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	a := &Agent{
		client:        opts.Client,
		registry:      opts.Registry,
		policy:        opts.Policy,
		model:         opts.Model,
		cwd:           opts.Cwd,
		maxIterations: maxIter,
		alwaysAllowed: make(map[string]bool),
	}
	if opts.SystemPrompt != "" {
		a.history = append(a.history, llm.Message{Role: "system", Content: opts.SystemPrompt})
	}
	return a
}

// SetModel switches the model used for subsequent turns.
func (a *Agent) SetModel(model string) {
	a.model = model
}

// SetSystemPrompt replaces the system message for subsequent turns.
// Used when the instructions file changes mid-session.
func (a *Agent) SetSystemPrompt(prompt string) {
	if len(a.history) > 0 && a.history[0].Role == "system" {
		a.history[0].Content = prompt
		return
	}
	a.history = append([]llm.Message{{Role: "system", Content: prompt}}, a.history...)
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []llm.Message {
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}

// Run processes one user prompt. Events stream on the returned channel,
// which is closed when the run ends. The consumer must drain it and must
// answer every EventApproval, otherwise the run blocks.
func (a *Agent) Run(ctx context.Context, prompt string) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		a.run(ctx, prompt, events)
	}()
	return events
}

func (a *Agent) run(ctx context.Context, prompt string, events chan<- Event) {
	logging.Chat("run: prompt=%d bytes model=%s", len(prompt), a.model)
	a.history = append(a.history, llm.Message{Role: "user", Content: prompt})

	for iter := 0; iter < a.maxIterations; iter++ {
		var content strings.Builder
		var calls []llm.ToolCall

		err := a.client.ChatStream(ctx, llm.ChatRequest{
			Model:    a.model,
			Messages: a.history,
			Tools:    a.registry.Definitions(),
		}, func(chunk llm.Chunk) error {
			if chunk.Content != "" {
				content.WriteString(chunk.Content)
				if !emit(ctx, events, Event{Type: EventText, Text: chunk.Content}) {
					return ctx.Err()
				}
			}
			calls = append(calls, chunk.ToolCalls...)
			return nil
		})
		if err != nil {
			emit(ctx, events, Event{Type: EventError, Err: err})
			return
		}

		a.history = append(a.history, llm.Message{
			Role:      "assistant",
			Content:   content.String(),
			ToolCalls: calls,
		})

		if len(calls) == 0 {
			emit(ctx, events, Event{Type: EventDone})
			return
		}

		for _, call := range calls {
			result, ok := a.invoke(ctx, events, call)
			if !ok {
				return
			}
			a.history = append(a.history, llm.Message{
				Role:    "tool",
				Content: toolMessage(result),
			})
		}
	}

	emit(ctx, events, Event{Type: EventError, Err: ErrMaxIterations})
}

// invoke gates one tool call through the approval policy and executes it.
// The returned bool is false when the run should stop (context canceled).
func (a *Agent) invoke(ctx context.Context, events chan<- Event, call llm.ToolCall) (*tools.Result, bool) {
	name := call.Function.Name
	args := map[string]any(call.Function.Arguments)

	decision, ok := a.authorize(ctx, events, name, args)
	if !ok {
		return nil, false
	}
	if decision == DecisionDeny {
		logging.Chat("tool %s denied by user", name)
		return &tools.Result{
			ToolName: name,
			Err:      fmt.Errorf("request denied by user"),
		}, true
	}

	if !emit(ctx, events, Event{Type: EventToolStart, ToolName: name, Args: args}) {
		return nil, false
	}
	result := a.registry.Execute(ctx, name, args)
	if !emit(ctx, events, Event{Type: EventToolEnd, ToolName: name, Result: result}) {
		return nil, false
	}
	return result, true
}

// authorize resolves the approval decision for a tool call, consulting the
// policy first and the user only when the policy does not auto-approve.
func (a *Agent) authorize(ctx context.Context, events chan<- Event, name string, args map[string]any) (Decision, bool) {
	tool := a.registry.Get(name)
	if tool == nil || !tool.RequiresApproval || a.alwaysAllowed[name] {
		return DecisionApprove, true
	}

	command := tools.StringArg(args, "command", "")
	var review approval.Review
	if tool.Category == tools.CategoryShell {
		review = a.policy.ReviewCommand(command)
	} else {
		review = a.policy.ReviewEdit()
	}
	if review.Approved {
		logging.ChatDebug("tool %s auto-approved: %s", name, review.Reason)
		return DecisionApprove, true
	}

	request := &ApprovalRequest{
		ToolName: name,
		Command:  command,
		Preview:  a.preview(tool, args, command),
		Reply:    make(chan Decision, 1),
	}
	if !emit(ctx, events, Event{Type: EventApproval, ToolName: name, Request: request}) {
		return DecisionDeny, false
	}

	select {
	case decision := <-request.Reply:
		if decision == DecisionAlwaysApprove {
			a.alwaysAllowed[name] = true
			decision = DecisionApprove
		}
		return decision, true
	case <-ctx.Done():
		return DecisionDeny, false
	}
}

// preview renders what the action would do, for the approval prompt.
func (a *Agent) preview(tool *tools.Tool, args map[string]any, command string) string {
	switch tool.Name {
	case "apply_patch":
		return a.patchPreview(tools.StringArg(args, "patch", ""))
	case "write_file":
		return a.writePreview(args)
	}
	if command != "" {
		return "$ " + command
	}
	return ""
}

func (a *Agent) patchPreview(text string) string {
	commit, err := patch.Resolve(text, patch.OSFileSystem(a.cwd))
	if err != nil {
		// Show the raw envelope when the patch cannot be resolved; the
		// execution attempt will surface the real error.
		return text
	}

	var previews []string
	for _, path := range commit.Order {
		change := commit.Changes[path]
		newPath := path
		if change.MovePath != "" {
			newPath = change.MovePath
		}
		fd := diff.Compute(path, newPath, change.OldContent, change.NewContent)
		if rendered := fd.Render(); rendered != "" {
			previews = append(previews, rendered)
		}
	}
	if len(previews) == 0 {
		return text
	}
	return strings.Join(previews, "\n")
}

func (a *Agent) writePreview(args map[string]any) string {
	path := tools.StringArg(args, "path", "")
	content, _ := args["content"].(string)
	old, err := patch.OSFileSystem(a.cwd).ReadFile(path)
	if err != nil {
		old = ""
	}
	return diff.Compute(path, path, old, content).Render()
}

// toolMessage formats a result as the tool role message fed back to the model.
func toolMessage(result *tools.Result) string {
	if result.Err != nil {
		msg := "Error: " + result.Err.Error()
		if result.Output != "" {
			msg += "\n" + result.Output
		}
		return msg
	}
	return result.Output
}

// emit sends an event unless the context is done. Returns false when the
// consumer is gone and the run should stop.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// ToolNames lists the registered tool names for display.
func (a *Agent) ToolNames() []string {
	all := a.registry.All()
	names := make([]string, 0, len(all))
	for _, t := range all {
		names = append(names, t.Name)
	}
	return names
}
