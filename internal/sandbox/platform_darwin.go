//go:build darwin

package sandbox

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// detectMode prefers Seatbelt when sandbox-exec is present.
func detectMode() Mode {
	if _, err := exec.LookPath("sandbox-exec"); err == nil {
		return ModeSeatbelt
	}
	return ModeNone
}

// buildCommand wraps the command in sandbox-exec with a generated profile.
// The cleanup func removes the temporary profile file.
func (s *Sandbox) buildCommand(command string) ([]string, func(), error) {
	if s.mode != ModeSeatbelt {
		return []string{"/bin/sh", "-c", command}, nil, nil
	}

	profile, err := writeSeatbeltProfile(s.writableRoots)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create seatbelt profile: %w", err)
	}

	argv := []string{"sandbox-exec", "-f", profile, "/bin/sh", "-c", command}
	cleanup := func() { _ = os.Remove(profile) }
	return argv, cleanup, nil
}

// writeSeatbeltProfile renders a profile that denies writes everywhere
// except the temp dirs, the null devices and the configured roots.
func writeSeatbeltProfile(writableRoots []string) (string, error) {
	var b strings.Builder
	b.WriteString("(version 1)\n")
	b.WriteString("(allow default)\n")
	b.WriteString("(deny file-write*)\n")
	b.WriteString("(allow file-write*\n")
	b.WriteString("    (subpath \"/private/tmp\")\n")
	b.WriteString("    (subpath \"/private/var/tmp\")\n")
	b.WriteString("    (literal \"/dev/null\")\n")
	b.WriteString("    (literal \"/dev/zero\")\n")
	for _, root := range writableRoots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "    (subpath %q)\n", abs)
	}
	b.WriteString(")\n")

	f, err := os.CreateTemp("", "opencodex-*.sb")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
