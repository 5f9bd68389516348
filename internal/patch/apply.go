package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"opencodex/internal/logging"
)

// FileSystem abstracts the file operations Process needs, so callers can
// apply patches against an in-memory view (previews) or the real disk.
type FileSystem interface {
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
	Remove(path string) error
}

type osFS struct {
	// root, when set, resolves relative paths and confines writes.
	root string
}

// OSFileSystem returns a FileSystem backed by the real filesystem, resolving
// relative paths against root (or the process cwd when root is empty).
func OSFileSystem(root string) FileSystem { return &osFS{root: root} }

func (f *osFS) resolve(path string) string {
	if f.root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(f.root, path)
}

func (f *osFS) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(f.resolve(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *osFS) WriteFile(path, content string) error {
	resolved := f.resolve(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return err
	}
	return os.WriteFile(resolved, []byte(content), 0o644)
}

func (f *osFS) Remove(path string) error {
	return os.Remove(f.resolve(path))
}

// Process parses patch text, resolves it against the current file contents
// and writes the result. Nothing is written if any part fails to parse or
// apply. Returns a one-line summary per changed file.
func Process(text string, fs FileSystem) (string, error) {
	commit, err := Resolve(text, fs)
	if err != nil {
		return "", err
	}

	var summary []string
	for _, path := range commit.Order {
		change := commit.Changes[path]
		switch change.Type {
		case ActionDelete:
			if err := fs.Remove(path); err != nil {
				return "", fmt.Errorf("failed to delete %s: %w", path, err)
			}
			summary = append(summary, "D "+path)
		case ActionAdd:
			if err := fs.WriteFile(path, change.NewContent); err != nil {
				return "", fmt.Errorf("failed to add %s: %w", path, err)
			}
			summary = append(summary, "A "+path)
		case ActionUpdate:
			if change.MovePath != "" {
				if err := fs.WriteFile(change.MovePath, change.NewContent); err != nil {
					return "", fmt.Errorf("failed to write %s: %w", change.MovePath, err)
				}
				if err := fs.Remove(path); err != nil {
					return "", fmt.Errorf("failed to remove %s after move: %w", path, err)
				}
				summary = append(summary, fmt.Sprintf("M %s -> %s", path, change.MovePath))
			} else {
				if err := fs.WriteFile(path, change.NewContent); err != nil {
					return "", fmt.Errorf("failed to write %s: %w", path, err)
				}
				summary = append(summary, "M "+path)
			}
		}
	}

	logging.Patch("applied patch: %s", strings.Join(summary, ", "))
	return strings.Join(summary, "\n"), nil
}

// Resolve parses the patch and computes the resulting commit without
// writing anything. Used for approval previews.
func Resolve(text string, fs FileSystem) (*Commit, error) {
	orig := make(map[string]string)
	for _, path := range FilesNeeded(text) {
		content, err := fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s: %v", ErrInvalidPatch, path, err)
		}
		orig[path] = content
	}

	p, err := Parse(text, orig)
	if err != nil {
		return nil, err
	}
	return p.ToCommit(orig)
}
