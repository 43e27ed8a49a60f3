package process

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

const (
	gracefulWindow = 5 * time.Second
	pollInterval   = 100 * time.Millisecond
)

// PortChecker is the Runner's view of the port conflict checker (component
// E): given a set of candidate ports, it returns the subset currently bound.
// A nil PortChecker skips the precheck entirely.
type PortChecker interface {
	InUse(ctx context.Context, ports []int) ([]int, error)
}

// Runner owns exactly one OS child for its full lifetime. A
// Runner is used once: call Start, then either let the child exit on its
// own or call RequestGracefulShutdown/Kill, and read exactly one value off
// Done().
type Runner struct {
	log *slog.Logger

	mu    sync.Mutex
	state State
	cmd   *exec.Cmd

	monitorOnce sync.Once
	waitDone    chan struct{} // closed once cmd.Wait() has returned
	stopWanted  bool          // true once shutdown/kill has been requested

	doneCh chan ExitNotification
}

// New constructs an idle Runner for id/name; it does not spawn anything.
func New(id, name string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		log:      log,
		state:    State{ID: id, Name: name, Status: StatusStopped},
		waitDone: make(chan struct{}),
		doneCh:   make(chan ExitNotification, 1),
	}
}

// Start implements the spawn protocol. It returns once the OS pid
// is known, or a local error kind on failure. On success the Runner begins
// monitoring the child asynchronously; callers must drain Done() exactly
// once to observe its terminal notification.
func (r *Runner) Start(ctx context.Context, def Definition, env []string, pc PortChecker) (State, error) {
	r.mu.Lock()
	r.state.Status = StatusStarting
	r.mu.Unlock()

	if def.Platform != "" && string(def.Platform) != currentPlatform() {
		return State{}, ErrPlatformMismatch
	}

	if pc != nil {
		if ports := portsFromEnv(def.Env); len(ports) > 0 {
			busy, err := pc.InUse(ctx, ports)
			if err != nil {
				r.log.Warn("port conflict probe failed, proceeding", "process", def.Name, "error", err)
			} else if len(busy) > 0 {
				return State{}, &PortInUseError{Ports: busy}
			}
		}
	}

	cmd, err := buildCmd(def, env)
	if err != nil {
		return State{}, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return State{}, &SpawnError{Inner: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return State{}, &SpawnError{Inner: err}
	}

	if err := cmd.Start(); err != nil {
		return State{}, &SpawnError{Inner: err}
	}

	r.mu.Lock()
	r.cmd = cmd
	r.state.OSPid = cmd.Process.Pid
	r.state.StartedAt = time.Now()
	r.state.Status = StatusRunning
	snapshot := r.state
	r.mu.Unlock()

	go forwardLines(r.log, def.Name, "stdout", stdout)
	go forwardLines(r.log, def.Name, "stderr", stderr)
	go r.monitor()

	r.log.Info("process started", "process", def.Name, "pid", snapshot.OSPid)
	return snapshot, nil
}

// monitor owns the single cmd.Wait() call and publishes the terminal
// ExitNotification exactly once.
func (r *Runner) monitor() {
	r.monitorOnce.Do(func() {
		err := r.cmd.Wait()
		close(r.waitDone)

		r.mu.Lock()
		requested := r.stopWanted
		pid := r.state.OSPid
		var reason ExitReasonKind
		exitCode := 0
		if err == nil {
			reason = ExitNormal
			r.state.Status = StatusStopped
		} else if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			if requested {
				reason = ExitKilled
				r.state.Status = StatusStopped
			} else {
				reason = ExitWithStatus
				r.state.Status = StatusFailed
			}
		} else {
			reason = ExitWithStatus
			r.state.Status = StatusFailed
		}
		id := r.state.ID
		r.mu.Unlock()

		r.doneCh <- ExitNotification{
			ID:         id,
			OSPid:      pid,
			Reason:     reason,
			ExitStatus: exitCode,
			Err:        err,
			Requested:  requested,
		}
	})
}

// Done returns the channel on which the Runner's single terminal
// notification is delivered.
func (r *Runner) Done() <-chan ExitNotification { return r.doneCh }

// Info returns a point-in-time snapshot of the runner's state.
func (r *Runner) Info() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Signal sends sig directly to the child's process group.
func (r *Runner) Signal(sig syscall.Signal) error {
	r.mu.Lock()
	pid := r.state.OSPid
	running := r.state.Status == StatusRunning || r.state.Status == StatusStopping
	r.mu.Unlock()
	if !running || pid == 0 {
		return ErrNotRunning
	}
	return signalGroup(pid, sig)
}

// RequestGracefulShutdown runs the stop sequence to completion: it blocks
// until the child is confirmed dead (by whichever means) or ctx expires.
func (r *Runner) RequestGracefulShutdown(ctx context.Context, def Definition, env []string) error {
	r.mu.Lock()
	if r.state.Status == StatusStopped || r.state.Status == StatusFailed {
		r.mu.Unlock()
		return ErrNotRunning
	}
	r.state.Status = StatusStopping
	r.stopWanted = true
	pid := r.state.OSPid
	r.mu.Unlock()

	if def.StopCommand != "" {
		stopCmd, err := buildStopCmd(def, env, pid)
		if err != nil {
			r.log.Warn("stop_command could not be resolved, falling back to SIGTERM", "process", def.Name, "error", err)
			_ = r.Signal(syscall.SIGTERM)
		} else if err := stopCmd.Run(); err != nil {
			r.log.Warn("stop_command exited non-zero", "process", def.Name, "error", err)
		}
	} else {
		if err := r.Signal(syscall.SIGTERM); err != nil && err != ErrNotRunning {
			r.log.Warn("SIGTERM delivery failed", "process", def.Name, "error", err)
		}
	}

	deadline := time.Now().Add(gracefulWindow)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.waitDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				goto escalate
			}
			if !pidAlive(pid) {
				// Child is dead but Wait() hasn't observed it yet; give it a beat.
				continue
			}
		}
	}

escalate:
	if err := r.Signal(syscall.SIGKILL); err != nil && err != ErrNotRunning {
		r.log.Warn("SIGKILL delivery failed", "process", def.Name, "error", err)
	}
	select {
	case <-r.waitDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill sends SIGKILL immediately, bypassing the graceful window. Used by
// the supervisor when its shutdown budget is exceeded.
func (r *Runner) Kill() error {
	r.mu.Lock()
	r.stopWanted = true
	r.mu.Unlock()
	return r.Signal(syscall.SIGKILL)
}

func portsFromEnv(env map[string]string) []int {
	var ports []int
	for _, key := range RecognizedPortEnvKeys {
		v, ok := env[key]
		if !ok {
			continue
		}
		var p int
		if _, err := fmt.Sscanf(v, "%d", &p); err == nil && p > 0 {
			ports = append(ports, p)
		}
	}
	return ports
}
