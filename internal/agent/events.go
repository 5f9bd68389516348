package agent

import "opencodex/internal/tools"

// EventType identifies what an Event carries.
type EventType int

const (
	// EventText is a streamed piece of assistant text.
	EventText EventType = iota

	// EventToolStart announces a tool call about to run.
	EventToolStart

	// EventToolEnd carries a finished tool result.
	EventToolEnd

	// EventApproval asks the consumer to approve or deny an action.
	// The consumer must send exactly one Decision on Request.Reply.
	EventApproval

	// EventError reports a fatal error; the run ends after this.
	EventError

	// EventDone marks the end of a successful run.
	EventDone
)

// Decision is the user's answer to an approval request.
type Decision int

const (
	// DecisionDeny rejects the action.
	DecisionDeny Decision = iota

	// DecisionApprove allows this one action.
	DecisionApprove

	// DecisionAlwaysApprove allows the action and every future use of the
	// same tool for the rest of the session.
	DecisionAlwaysApprove
)

// ApprovalRequest is surfaced when an action needs user confirmation.
type ApprovalRequest struct {
	ToolName string

	// Command is set for shell actions.
	Command string

	// Preview is a human-readable rendering of the action: a unified diff
	// for edits, the command line for shell.
	Preview string

	// Reply receives the user's decision. Buffered, send exactly once.
	Reply chan Decision
}

// Event is one item on the run's event stream.
type Event struct {
	Type     EventType
	Text     string
	ToolName string
	Args     map[string]any
	Result   *tools.Result
	Request  *ApprovalRequest
	Err      error
}
