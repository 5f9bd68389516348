package main

import (
	"os"
	"runtime"
	"strings"
	"testing"

	"opencodex/internal/agent"
	"opencodex/internal/config"
)

func TestEditConfigOpensInstructionsFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a no-op editor binary")
	}

	t.Setenv("CODEX_HOME", t.TempDir())
	t.Setenv("EDITOR", "true")

	if err := editConfig(); err != nil {
		t.Fatalf("editConfig failed: %v", err)
	}

	path, err := config.InstructionsPath()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("instructions file not created: %v", err)
	}
}

func TestDenyQuietApproval(t *testing.T) {
	req := &agent.ApprovalRequest{ToolName: "shell", Command: "rm -rf /tmp/x"}

	var out strings.Builder
	decision := denyQuietApproval(&out, req)

	if decision != agent.DecisionDeny {
		t.Errorf("decision = %v, want deny", decision)
	}
	if !strings.Contains(out.String(), "shell") {
		t.Errorf("report missing tool name: %q", out.String())
	}
}
