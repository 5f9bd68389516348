//go:build !darwin && !windows

package sandbox

// No kernel-level sandbox is wired on generic Unix; commands run directly
// through the shell and the caller is warned once.
func detectMode() Mode { return ModeNone }

func (s *Sandbox) buildCommand(command string) ([]string, func(), error) {
	return []string{"/bin/sh", "-c", command}, nil, nil
}
