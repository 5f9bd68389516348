package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func reset() {
	mu.Lock()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	debugMode = false
	mu.Unlock()
}

func TestInitializeDisabled(t *testing.T) {
	defer reset()

	dir := t.TempDir()
	if err := Initialize(dir, false); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if Enabled() {
		t.Error("Enabled() should be false without debug mode")
	}

	// No logs directory should be created.
	if _, err := os.Stat(filepath.Join(dir, "logs")); !os.IsNotExist(err) {
		t.Error("logs directory must not exist in production mode")
	}

	// Logging must be a no-op, not a panic.
	API("hello %s", "world")
	Get(CategoryChat).Error("nope")
}

func TestInitializeDebugWritesFiles(t *testing.T) {
	defer reset()
	defer Close()

	dir := t.TempDir()
	if err := Initialize(dir, true); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if !Enabled() {
		t.Fatal("Enabled() should be true in debug mode")
	}

	Exec("ran command: %s", "ls -la")
	ExecDebug("exit code %d", 0)

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	found := false
	for _, e := range entries {
		data, _ := os.ReadFile(filepath.Join(dir, "logs", e.Name()))
		if len(data) > 0 && filepath.Ext(e.Name()) == ".log" {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one non-empty log file")
	}
}

func TestGetReusesLogger(t *testing.T) {
	defer reset()
	defer Close()

	if err := Initialize(t.TempDir(), true); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	a := Get(CategoryAPI)
	b := Get(CategoryAPI)
	if a != b {
		t.Error("Get should return the same logger for a category")
	}
}
