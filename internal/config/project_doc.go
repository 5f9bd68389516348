package config

import (
	"fmt"
	"os"
	"path/filepath"

	"opencodex/internal/logging"
)

// MaxProjectDocBytes caps how much project documentation is injected into
// the system prompt.
const MaxProjectDocBytes = 32 * 1024

// projectDocNames are the filenames probed when no explicit path is given,
// in priority order.
var projectDocNames = []string{"codex.md", ".codex.md", "CODEX.md"}

// LoadProjectDoc returns the project documentation for cwd.
//
// With an explicit path, that file is read directly. Otherwise the standard
// doc names are probed in cwd and each parent directory, stopping at the
// first directory containing .git (the repository root) or the filesystem
// root. Returns "" with a nil error when no doc exists.
func LoadProjectDoc(cwd, explicitPath string) (string, error) {
	docPath := explicitPath
	if docPath == "" {
		docPath = discoverProjectDoc(cwd)
		if docPath == "" {
			return "", nil
		}
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		return "", fmt.Errorf("failed to read project doc %s: %w", docPath, err)
	}

	if len(data) > MaxProjectDocBytes {
		fmt.Fprintf(os.Stderr, "warning: %s exceeds %d bytes, truncating\n", docPath, MaxProjectDocBytes)
		data = data[:MaxProjectDocBytes]
	}

	logging.ConfigDebug("project doc loaded from %s (%d bytes)", docPath, len(data))
	return string(data), nil
}

// discoverProjectDoc walks upward from dir looking for a doc file.
func discoverProjectDoc(dir string) string {
	current, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		for _, name := range projectDocNames {
			candidate := filepath.Join(current, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}

		// Do not search beyond the repository root.
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return ""
		}

		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}
