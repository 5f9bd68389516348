package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"opencodex/internal/logging"
)

// WatchInstructions reloads the instructions file whenever it changes and
// delivers the new content to onChange. It blocks until ctx is cancelled,
// so run it in its own goroutine. The edit-and-continue flow behind the -c
// flag depends on this: edits made in $EDITOR apply to the running session.
func WatchInstructions(ctx context.Context, path string, onChange func(content string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors rename-and-replace, which
	// drops a plain file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logging.ConfigDebug("watching instructions at %s", path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				logging.Config("instructions reload failed: %v", err)
				continue
			}
			logging.Config("instructions reloaded (%d bytes)", len(data))
			onChange(string(data))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Config("instructions watcher error: %v", err)
		}
	}
}
