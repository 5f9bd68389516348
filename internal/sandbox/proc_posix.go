//go:build !windows

package sandbox

import (
	"os/exec"
	"syscall"
)

// isolateProcess puts the child in its own process group so a timeout can
// kill the whole tree, not just the direct shell.
func isolateProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcess kills the child's process group. Descendants holding the
// output pipes would otherwise keep Wait blocked past the timeout.
func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
