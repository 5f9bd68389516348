package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestExecCapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell semantics")
	}

	s := New(nil)
	result := s.Exec(context.Background(), "echo hello", Options{})

	if result.Err != nil {
		t.Fatalf("Exec failed: %v", result.Err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", result.ExitCode)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Errorf("stdout = %q, want hello", result.Stdout)
	}
}

func TestExecNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell semantics")
	}

	s := New(nil)
	result := s.Exec(context.Background(), "exit 3", Options{})

	if result.Err != nil {
		t.Fatalf("unexpected launch error: %v", result.Err)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", result.ExitCode)
	}
}

func TestExecStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell semantics")
	}

	s := New(nil)
	result := s.Exec(context.Background(), "echo oops >&2", Options{})

	if strings.TrimSpace(result.Stderr) != "oops" {
		t.Errorf("stderr = %q, want oops", result.Stderr)
	}
}

func TestExecTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell semantics")
	}

	s := New(nil)
	start := time.Now()
	result := s.Exec(context.Background(), "sleep 5", Options{Timeout: 100 * time.Millisecond})

	if !result.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout did not interrupt the command promptly")
	}
}

func TestExecTimeoutKillsDescendants(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell semantics")
	}

	// A backgrounded grandchild inherits the output pipes; killing the
	// process group must release them so Exec returns at the deadline.
	s := New(nil)
	start := time.Now()
	result := s.Exec(context.Background(), "sleep 5 & wait", Options{Timeout: 100 * time.Millisecond})

	if !result.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if time.Since(start) > 3*time.Second {
		t.Error("grandchild kept Exec blocked past the timeout")
	}
}

func TestExecWorkingDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell semantics")
	}

	dir := t.TempDir()
	s := New([]string{dir})
	result := s.Exec(context.Background(), "pwd", Options{WorkingDir: dir})

	got, err := filepath.EvalSymlinks(strings.TrimSpace(result.Stdout))
	if err != nil {
		t.Fatal(err)
	}
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("pwd = %q, want %q", got, want)
	}
}

func TestExecMergesEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell semantics")
	}

	s := New(nil)
	result := s.Exec(context.Background(), "echo $CODEX_TEST_VAR", Options{
		Env: []string{"CODEX_TEST_VAR=present"},
	})

	if strings.TrimSpace(result.Stdout) != "present" {
		t.Errorf("stdout = %q, want present", result.Stdout)
	}
}

func TestExecTruncatesLongOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell semantics")
	}

	s := New(nil)
	cmd := "head -c 100000 /dev/zero | tr '\\0' 'x'"
	result := s.Exec(context.Background(), cmd, Options{})

	if !result.Truncated {
		t.Fatal("expected truncation")
	}
	if len(result.Stdout) > MaxOutputBytes+len("\n...[output truncated]") {
		t.Errorf("stdout not capped: %d bytes", len(result.Stdout))
	}

	full := s.Exec(context.Background(), cmd, Options{FullOutput: true})
	if full.Truncated {
		t.Error("FullOutput must not truncate")
	}
	if len(full.Stdout) != 100000 {
		t.Errorf("full stdout = %d bytes, want 100000", len(full.Stdout))
	}
}

func TestCombined(t *testing.T) {
	r := ExecResult{Stdout: "out", Stderr: "err"}
	want := "out\n--- stderr ---\nerr"
	if got := r.Combined(); got != want {
		t.Errorf("Combined() = %q, want %q", got, want)
	}

	onlyErr := ExecResult{Stderr: "err"}
	if got := onlyErr.Combined(); got != "err" {
		t.Errorf("Combined() = %q, want err", got)
	}
}

func TestModeDetection(t *testing.T) {
	s := New(nil)
	switch runtime.GOOS {
	case "darwin":
		if _, err := os.Stat("/usr/bin/sandbox-exec"); err == nil && s.Mode() != ModeSeatbelt {
			t.Errorf("mode = %s, want seatbelt on darwin", s.Mode())
		}
	default:
		if s.Mode() != ModeNone {
			t.Errorf("mode = %s, want none on %s", s.Mode(), runtime.GOOS)
		}
	}
}
