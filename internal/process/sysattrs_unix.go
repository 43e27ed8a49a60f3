//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr places the child in its own process group so that
// Signal/RequestGracefulShutdown can address the whole group rather than
// just the immediate child.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup delivers sig to the child's entire process group.
func signalGroup(pid int, sig syscall.Signal) error {
	return syscall.Kill(-pid, sig)
}
