//go:build !linux

package process

// isZombieLinux is a no-op outside Linux; other platforms reap children
// promptly enough that the zombie window is not observable the same way.
func isZombieLinux(pid int) bool { return false }
