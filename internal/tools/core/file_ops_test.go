package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFileTool_Definition(t *testing.T) {
	t.Parallel()

	tool := ReadFileTool()
	if tool.Name != "read_file" {
		t.Errorf("Name mismatch: got %q", tool.Name)
	}
	if tool.Description == "" {
		t.Error("Description should not be empty")
	}
	if tool.Execute == nil {
		t.Error("Execute should be set")
	}
	if tool.RequiresApproval {
		t.Error("read_file should not require approval")
	}
}

func TestReadFileTool_Execute_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := executeReadFile(context.Background(), map[string]any{})
	if err == nil {
		t.Error("expected error for missing path")
	}
}

func TestReadFileTool_Execute_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := executeReadFile(context.Background(), map[string]any{
		"path": "/nonexistent/file.txt",
	})
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestReadFileTool_Execute_Success(t *testing.T) {
	t.Parallel()

	tmpFile := filepath.Join(t.TempDir(), "test.txt")
	content := "Hello, World!\nSecond line."
	os.WriteFile(tmpFile, []byte(content), 0644)

	result, err := executeReadFile(context.Background(), map[string]any{
		"path": tmpFile,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != content {
		t.Errorf("content mismatch: got %q", result)
	}
}

func TestReadFileTool_Execute_LineRange(t *testing.T) {
	t.Parallel()

	tmpFile := filepath.Join(t.TempDir(), "test.txt")
	os.WriteFile(tmpFile, []byte("one\ntwo\nthree\nfour\n"), 0644)

	// float64 args mimic JSON decoding of the model's tool call.
	result, err := executeReadFile(context.Background(), map[string]any{
		"path":       tmpFile,
		"start_line": float64(2),
		"end_line":   float64(3),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "two\nthree" {
		t.Errorf("line range mismatch: got %q", result)
	}
}

func TestReadFileTool_Execute_InvertedLineRange(t *testing.T) {
	t.Parallel()

	tmpFile := filepath.Join(t.TempDir(), "test.txt")
	os.WriteFile(tmpFile, []byte("one\ntwo\nthree\nfour\nfive\nsix\nseven\neight\nnine\nten\n"), 0644)

	_, err := executeReadFile(context.Background(), map[string]any{
		"path":       tmpFile,
		"start_line": float64(5),
		"end_line":   float64(2),
	})
	if err == nil {
		t.Fatal("expected error when end_line is before start_line")
	}
	if !strings.Contains(err.Error(), "before start_line") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWriteFileTool_RequiresApproval(t *testing.T) {
	t.Parallel()

	if !WriteFileTool().RequiresApproval {
		t.Error("write_file should require approval")
	}
}

func TestWriteFileTool_Execute_CreatesDirs(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "nested", "dir", "out.txt")
	result, err := executeWriteFile(context.Background(), map[string]any{
		"path":    target,
		"content": "payload",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "7 bytes") {
		t.Errorf("result should report byte count: %q", result)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("content mismatch: got %q", data)
	}
}

func TestWriteFileTool_Execute_NoCreateDirs(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "missing", "out.txt")
	_, err := executeWriteFile(context.Background(), map[string]any{
		"path":        target,
		"content":     "x",
		"create_dirs": false,
	})
	if err == nil {
		t.Error("expected error when parent directory is missing")
	}
}

func TestListFilesTool_Execute(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644)
	os.WriteFile(filepath.Join(dir, ".hidden"), []byte("h"), 0644)
	os.MkdirAll(filepath.Join(dir, "sub"), 0755)
	os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0644)

	result, err := executeListFiles(context.Background(), map[string]any{"path": dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "a.txt") || !strings.Contains(result, "sub/") {
		t.Errorf("missing entries: %q", result)
	}
	if strings.Contains(result, ".hidden") {
		t.Errorf("hidden file should be excluded: %q", result)
	}

	result, err = executeListFiles(context.Background(), map[string]any{
		"path":      dir,
		"recursive": true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, filepath.Join("sub", "b.txt")) {
		t.Errorf("recursive listing missing nested file: %q", result)
	}
}

func TestListFilesTool_Execute_IncludeHidden(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".hidden"), []byte("h"), 0644)

	result, err := executeListFiles(context.Background(), map[string]any{
		"path":           dir,
		"include_hidden": true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, ".hidden") {
		t.Errorf("hidden file should be included: %q", result)
	}
}
