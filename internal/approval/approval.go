// Package approval decides whether model-proposed actions run without
// asking the user. Three modes mirror the CLI flags: suggest asks for
// everything, auto-edit waves file edits through, full-auto waves both
// through (with the sandbox as the backstop).
package approval

import (
	"fmt"
	"strings"
)

// Mode is the approval policy level.
type Mode int

const (
	// ModeSuggest asks for approval on every command and edit.
	ModeSuggest Mode = iota

	// ModeAutoEdit auto-approves edits but asks for commands.
	ModeAutoEdit

	// ModeFullAuto auto-approves edits and commands.
	ModeFullAuto
)

// ParseMode converts the CLI/config spelling into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "suggest":
		return ModeSuggest, nil
	case "auto-edit", "autoedit":
		return ModeAutoEdit, nil
	case "full-auto", "fullauto":
		return ModeFullAuto, nil
	default:
		return ModeSuggest, fmt.Errorf("unknown approval mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeAutoEdit:
		return "auto-edit"
	case ModeFullAuto:
		return "full-auto"
	default:
		return "suggest"
	}
}

// Review is the policy decision for one action.
type Review struct {
	Approved bool
	Reason   string
}

// Policy evaluates actions against the configured mode.
type Policy struct {
	Mode Mode
}

// NewPolicy creates a policy for the given mode.
func NewPolicy(mode Mode) *Policy { return &Policy{Mode: mode} }

// AutoApproveEdits reports whether file edits skip the user prompt.
func (p *Policy) AutoApproveEdits() bool {
	return p.Mode == ModeAutoEdit || p.Mode == ModeFullAuto
}

// AutoApproveCommands reports whether shell commands skip the user prompt.
func (p *Policy) AutoApproveCommands() bool {
	return p.Mode == ModeFullAuto
}

// ReviewEdit evaluates a patch application.
func (p *Policy) ReviewEdit() Review {
	if p.AutoApproveEdits() {
		return Review{Approved: true, Reason: "edits auto-approved by policy"}
	}
	return Review{Approved: false, Reason: "edit requires user approval"}
}

// ReviewCommand evaluates a shell command.
func (p *Policy) ReviewCommand(command string) Review {
	if p.AutoApproveCommands() {
		return Review{Approved: true, Reason: "commands auto-approved by policy"}
	}
	if IsKnownSafe(command) {
		return Review{Approved: true, Reason: "read-only command"}
	}
	return Review{Approved: false, Reason: "command requires user approval"}
}

// knownSafeBinaries are read-only commands approved in every mode.
var knownSafeBinaries = map[string]bool{
	"ls":     true,
	"cat":    true,
	"pwd":    true,
	"head":   true,
	"tail":   true,
	"wc":     true,
	"which":  true,
	"grep":   true,
	"rg":     true,
	"true":   true,
	"false":  true,
	"date":   true,
	"whoami": true,
}

// IsKnownSafe reports whether a command is a plain invocation of a
// read-only binary. Any shell metacharacter disqualifies it: redirection
// or chaining can make even `cat` destructive.
func IsKnownSafe(command string) bool {
	if strings.ContainsAny(command, "|&;<>`$\\") {
		return false
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	return knownSafeBinaries[fields[0]]
}
