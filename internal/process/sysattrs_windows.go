//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

const createNewProcessGroup = 0x00000200

// setSysProcAttr creates a new process group so the child can be addressed
// independently of nurvus's own console.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}

const processTerminate = 0x0001

var procTerminateProcess = kernel32.NewProc("TerminateProcess")

// signalGroup has no Unix-signal equivalent on Windows; any requested
// signal (SIGTERM or SIGKILL) is delivered as TerminateProcess, matching
// the stop_command escalation's assumption that both steps simply end the
// process on this platform.
func signalGroup(pid int, _ syscall.Signal) error {
	handle, err := openProcess(processTerminate, false, uint32(pid))
	if err != nil {
		return nil
	}
	defer closeHandle(handle)
	ret, _, callErr := procTerminateProcess.Call(uintptr(handle), uintptr(1))
	if ret == 0 {
		return callErr
	}
	return nil
}
