//go:build linux

package process

import (
	"bytes"
	"os"
	"strconv"
)

// isZombieLinux inspects /proc/<pid>/status for State: Z, the one case
// where signal 0 succeeds against a process that is no longer actually
// running (it is waiting for its parent to reap it).
func isZombieLinux(pid int) bool {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/status")
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte("State:\tZ"))
}
