package process

import "time"

// Status is the lifecycle state of a single runner.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
	StatusFailed   Status = "failed"
	StatusUnknown  Status = "unknown"
)

// Platform enumerates the operating systems a Definition may be restricted to.
type Platform string

const (
	PlatformWin32  Platform = "win32"
	PlatformDarwin Platform = "darwin"
	PlatformLinux  Platform = "linux"
)

// HealthCheck is consumed by the health client only, never by the
// runner/manager/supervisor themselves.
type HealthCheck struct {
	URL      string        `mapstructure:"url" json:"url,omitempty"`
	Interval time.Duration `mapstructure:"interval" json:"interval,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
}

// Definition is a declared process, immutable once loaded.
type Definition struct {
	ID                    string            `mapstructure:"id" json:"id"`
	Name                  string            `mapstructure:"name" json:"name"`
	Command               string            `mapstructure:"command" json:"command"`
	Args                  []string          `mapstructure:"args" json:"args,omitempty"`
	Cwd                   string            `mapstructure:"cwd" json:"cwd,omitempty"`
	Env                   map[string]string `mapstructure:"env" json:"env,omitempty"`
	InheritEnv            bool              `mapstructure:"inherit_env" json:"inherit_env,omitempty"`
	AutoRestart           bool              `mapstructure:"auto_restart" json:"auto_restart,omitempty"`
	MaxRestarts           int               `mapstructure:"max_restarts" json:"max_restarts"`
	RestartWindowSeconds  int               `mapstructure:"restart_window_seconds" json:"restart_window_seconds"`
	Platform              Platform          `mapstructure:"platform" json:"platform,omitempty"`
	StopCommand           string            `mapstructure:"stop_command" json:"stop_command,omitempty"`
	StopArgs              []string          `mapstructure:"stop_args" json:"stop_args,omitempty"`
	HealthCheck           *HealthCheck      `mapstructure:"health_check" json:"health_check,omitempty"`
}

// DefaultMaxRestarts and DefaultRestartWindowSeconds are applied by the
// config loader when a definition omits the field.
const (
	DefaultMaxRestarts          = 3
	DefaultRestartWindowSeconds = 60
)

// WithDefaults returns a copy of d with zero-valued optional fields filled in.
func (d Definition) WithDefaults() Definition {
	if d.MaxRestarts == 0 {
		d.MaxRestarts = DefaultMaxRestarts
	}
	if d.RestartWindowSeconds == 0 {
		d.RestartWindowSeconds = DefaultRestartWindowSeconds
	}
	return d
}

// RecognizedPortEnvKeys are the env keys the spawn protocol inspects before
// invoking the port conflict checker.
var RecognizedPortEnvKeys = []string{"PORT", "HEALTH_PORT", "WEBSOCKET_PORT", "HTTP_PORT", "API_PORT"}

// State is a point-in-time snapshot of a live runner, safe to copy.
type State struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	OSPid         int       `json:"os_pid,omitempty"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	RestartCount  int       `json:"restart_count"`
	LastRestartAt time.Time `json:"last_restart_at,omitempty"`
	Status        Status    `json:"status"`
}

// UptimeSeconds returns elapsed time since StartedAt, or 0 if not running.
func (s State) UptimeSeconds() float64 {
	if s.StartedAt.IsZero() {
		return 0
	}
	return time.Since(s.StartedAt).Seconds()
}

// ExitReasonKind classifies why a runner's child exited.
type ExitReasonKind string

const (
	ExitNormal       ExitReasonKind = "normal"
	ExitWithStatus   ExitReasonKind = "exit_status"
	ExitKilled       ExitReasonKind = "killed"
	ExitSpawnFailure ExitReasonKind = "spawn_error"
)

// ExitNotification is the one-shot terminal event a Runner emits.
type ExitNotification struct {
	ID         string
	OSPid      int
	Reason     ExitReasonKind
	ExitStatus int
	Err        error
	Requested  bool // true if the exit followed a graceful-shutdown/kill request
}
