// Package sandbox runs model-proposed shell commands with a best-effort
// isolation layer. On macOS commands are wrapped in Seatbelt (sandbox-exec)
// with writes confined to the configured roots; elsewhere commands run
// directly and the caller is warned once.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"opencodex/internal/logging"
)

// Mode is the isolation level in use.
type Mode string

const (
	// ModeNone runs commands directly on the host.
	ModeNone Mode = "none"

	// ModeSeatbelt wraps commands in macOS sandbox-exec.
	ModeSeatbelt Mode = "macos.seatbelt"
)

// DefaultTimeout bounds a command when the caller does not set one.
const DefaultTimeout = 60 * time.Second

// MaxOutputBytes caps captured stdout/stderr unless full output is requested.
const MaxOutputBytes = 50_000

const truncationMarker = "\n...[output truncated]"

// ExecResult is the outcome of one command run.
type ExecResult struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Duration  time.Duration
	TimedOut  bool
	Truncated bool

	// Err is set for failures to launch or kill, not for non-zero exits.
	Err error
}

// Options configure a single Exec call.
type Options struct {
	WorkingDir string
	Env        []string // extra KEY=VALUE entries merged over os.Environ
	Timeout    time.Duration
	FullOutput bool // disable output truncation
}

// Sandbox executes commands under the detected isolation mode.
type Sandbox struct {
	writableRoots []string
	mode          Mode
	warnOnce      sync.Once
}

// New creates a sandbox confining writes to the given roots.
// The mode is detected from the platform at construction time.
func New(writableRoots []string) *Sandbox {
	return &Sandbox{
		writableRoots: writableRoots,
		mode:          detectMode(),
	}
}

// Mode returns the active isolation mode.
func (s *Sandbox) Mode() Mode { return s.mode }

// Exec runs command through the platform shell inside the sandbox.
func (s *Sandbox) Exec(ctx context.Context, command string, opts Options) ExecResult {
	if s.mode == ModeNone {
		s.warnOnce.Do(func() {
			fmt.Fprintln(os.Stderr, "warning: no sandbox available on this platform, commands run unconfined")
		})
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv, cleanup, err := s.buildCommand(command)
	if err != nil {
		return ExecResult{ExitCode: -1, Err: err}
	}
	if cleanup != nil {
		defer cleanup()
	}

	logging.Exec("run: %s (mode=%s, dir=%s)", command, s.mode, opts.WorkingDir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = opts.WorkingDir
	cmd.Env = append(os.Environ(), opts.Env...)
	isolateProcess(cmd)
	cmd.Cancel = func() error { return killProcess(cmd) }
	// Backstop: release Wait even if a grandchild survives the kill and
	// keeps the output pipes open.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	result := ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case runErr == nil:
		result.ExitCode = 0
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.ExitCode = -1
		result.Err = fmt.Errorf("command timed out after %s", timeout)
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.Err = runErr
		}
	}

	if !opts.FullOutput {
		result.Stdout, result.Truncated = truncate(result.Stdout)
		var stderrTruncated bool
		result.Stderr, stderrTruncated = truncate(result.Stderr)
		result.Truncated = result.Truncated || stderrTruncated
	}

	logging.ExecDebug("done: exit=%d duration=%s stdout=%dB stderr=%dB",
		result.ExitCode, result.Duration, len(result.Stdout), len(result.Stderr))
	return result
}

// Combined returns stdout with stderr appended, the way results are shown
// and fed back to the model.
func (r ExecResult) Combined() string {
	out := r.Stdout
	if r.Stderr != "" {
		if out != "" {
			out += "\n--- stderr ---\n"
		}
		out += r.Stderr
	}
	return out
}

func truncate(s string) (string, bool) {
	if len(s) <= MaxOutputBytes {
		return s, false
	}
	return s[:MaxOutputBytes] + truncationMarker, true
}
