package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// startWatcher runs WatchInstructions in the background and returns a
// channel of reloaded contents plus a stop func.
func startWatcher(t *testing.T, path string) (<-chan string, func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = WatchInstructions(ctx, path, func(content string) {
			changes <- content
		})
	}()
	return changes, func() {
		cancel()
		<-done
	}
}

func waitForChange(t *testing.T, changes <-chan string, want string) {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-changes:
			// Editors may produce several events per save; wait for the
			// final content.
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("no reload with content %q", want)
		}
	}
}

func TestWatchInstructionsFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instructions.md")
	require.NoError(t, os.WriteFile(path, []byte("before"), 0o644))

	changes, stop := startWatcher(t, path)
	defer stop()

	// Give the watcher a moment to register the directory watch.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("after"), 0o644))
	waitForChange(t, changes, "after")
}

func TestWatchInstructionsFiresOnRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instructions.md")
	require.NoError(t, os.WriteFile(path, []byte("before"), 0o644))

	changes, stop := startWatcher(t, path)
	defer stop()

	time.Sleep(100 * time.Millisecond)

	// Editors save by writing a temp file and renaming it over the target;
	// a plain file watch drops here, the directory watch must not.
	tmp := filepath.Join(dir, "instructions.md.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("replaced"), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	waitForChange(t, changes, "replaced")
}
