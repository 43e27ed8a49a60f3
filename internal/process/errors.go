package process

import "errors"

// Sentinel errors forming the lifecycle-error taxonomy. Wrapped with
// fmt.Errorf("...: %w", ...) by callers that need to attach detail.
var (
	ErrNotFound                      = errors.New("not_found")
	ErrAlreadyRegistered             = errors.New("already_registered")
	ErrNotRunning                    = errors.New("not_running")
	ErrAlreadyRunning                = errors.New("already_running")
	ErrExecutableNotFound            = errors.New("executable_not_found")
	ErrPlatformMismatch              = errors.New("platform_mismatch")
	ErrStopTimeout                   = errors.New("stop_timeout")
	ErrSupervisorRestartExceeded     = errors.New("supervisor_restart_intensity_exceeded")
	ErrAutoRestartExhausted          = errors.New("auto_restart_exhausted")
)

// PortInUseError reports the set of declared ports found already bound.
type PortInUseError struct {
	Ports []int
}

func (e *PortInUseError) Error() string {
	return "port_in_use"
}

// SpawnError wraps the underlying OS error from a failed exec.
type SpawnError struct {
	Inner error
}

func (e *SpawnError) Error() string { return "spawn_error: " + e.Inner.Error() }
func (e *SpawnError) Unwrap() error { return e.Inner }
