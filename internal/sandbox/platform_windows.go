//go:build windows

package sandbox

func detectMode() Mode { return ModeNone }

func (s *Sandbox) buildCommand(command string) ([]string, func(), error) {
	return []string{"cmd", "/C", command}, nil, nil
}
