package applypatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTool_Definition(t *testing.T) {
	tool := Tool(t.TempDir())
	if tool.Name != "apply_patch" {
		t.Errorf("Name mismatch: got %q", tool.Name)
	}
	if !tool.RequiresApproval {
		t.Error("apply_patch should require approval")
	}
	if !strings.Contains(tool.Description, "*** Begin Patch") {
		t.Error("description should document the envelope format")
	}
}

func TestTool_Execute_AddFile(t *testing.T) {
	dir := t.TempDir()
	tool := Tool(dir)

	out, err := tool.Execute(context.Background(), map[string]any{
		"patch": "*** Begin Patch\n*** Add File: hello.txt\nhello\nworld\n*** End Patch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "A hello.txt") {
		t.Errorf("summary missing add: %q", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "hello.txt"))
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if string(data) != "hello\nworld\n" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestTool_Execute_UpdateFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "f.txt"), []byte("a\nb\nc\n"), 0644)
	tool := Tool(dir)

	out, err := tool.Execute(context.Background(), map[string]any{
		"patch": "*** Begin Patch\n*** Update File: f.txt\n@@ a\n-b\n+x\n*** End Patch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "M f.txt") {
		t.Errorf("summary missing update: %q", out)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "f.txt"))
	if string(data) != "a\nx\nc\n" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestTool_Execute_InvalidPatch(t *testing.T) {
	tool := Tool(t.TempDir())
	_, err := tool.Execute(context.Background(), map[string]any{
		"patch": "not a patch",
	})
	if err == nil {
		t.Error("expected error for invalid envelope")
	}
}

func TestTool_Execute_MissingArg(t *testing.T) {
	tool := Tool(t.TempDir())
	_, err := tool.Execute(context.Background(), map[string]any{})
	if err == nil {
		t.Error("expected error for missing patch argument")
	}
}
