//go:build !windows

package process

import (
	"os"
	"syscall"
)

// pidAlive reports whether pid refers to a live, non-zombie process.
// POSIX liveness is signal 0 (kill -0); a zombie still answers signal 0,
// so Linux additionally consults /proc/<pid>/status.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return false
	}
	if isZombieLinux(pid) {
		return false
	}
	return true
}
