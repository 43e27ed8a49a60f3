//go:build windows

package process

import "syscall"

// pidAlive reports whether pid refers to a live process. Windows has no
// zombie state, so a successful OpenProcess is sufficient.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	handle, err := openProcess(processQueryInformation, false, uint32(pid))
	if err != nil {
		return false
	}
	defer closeHandle(handle)
	return true
}

const processQueryInformation = 0x0400

var (
	kernel32        = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess = kernel32.NewProc("OpenProcess")
	procCloseHandle = kernel32.NewProc("CloseHandle")
)

func openProcess(access uint32, inheritHandle bool, pid uint32) (syscall.Handle, error) {
	inherit := 0
	if inheritHandle {
		inherit = 1
	}
	ret, _, err := procOpenProcess.Call(uintptr(access), uintptr(inherit), uintptr(pid))
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}

func closeHandle(handle syscall.Handle) error {
	ret, _, err := procCloseHandle.Call(uintptr(handle))
	if ret == 0 {
		return err
	}
	return nil
}
