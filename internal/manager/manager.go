// Package manager implements the process manager: the single-writer
// coordinator of the declared-process table and the live monitor table.
// It is the sole authority over lifecycle transitions.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nurvus/nurvus/internal/env"
	"github.com/nurvus/nurvus/internal/metrics"
	"github.com/nurvus/nurvus/internal/process"
	"github.com/nurvus/nurvus/internal/registry"
	"github.com/nurvus/nurvus/internal/supervisor"
)

// autoRestartDelay is the fixed fence against thundering crash loops:
// auto-restart is always scheduled with at least a 1000 ms delay.
const autoRestartDelay = 1000 * time.Millisecond

// monitorEntry is the Manager's (runner_handle, link_token) pair for a live
// id. dissolved is set before a manual stop is dispatched so the runner's
// eventual exit is not mistaken for a crash.
type monitorEntry struct {
	runner    *process.Runner
	token     uuid.UUID
	dissolved bool
}

// Summary is list_processes' per-id view.
type Summary struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Status process.Status `json:"status"`
}

// Manager is safe for concurrent use. Mutations of definitions, monitors,
// and the restart rings happen only while mu is held; mu is never held
// across a blocking Runner/Supervisor call, so a slow stop on one id never
// blocks a status read or a start for another.
type Manager struct {
	log     *slog.Logger
	sup     *supervisor.Supervisor
	reg     *registry.Registry
	globals *env.Env

	mu          sync.Mutex
	definitions map[string]process.Definition
	monitors    map[string]*monitorEntry
	restartRing map[string][]time.Time
}

func New(log *slog.Logger, sup *supervisor.Supervisor, reg *registry.Registry, globals *env.Env) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if globals == nil {
		globals = env.New()
	}
	return &Manager{
		log:         log,
		sup:         sup,
		reg:         reg,
		globals:     globals,
		definitions: make(map[string]process.Definition),
		monitors:    make(map[string]*monitorEntry),
		restartRing: make(map[string][]time.Time),
	}
}

// AddProcess implements add_process. It enforces id uniqueness at
// registration time, independent of whatever the config loader already
// checked.
func (m *Manager) AddProcess(def process.Definition) error {
	if def.ID == "" {
		return fmt.Errorf("invalid_config: id must not be empty")
	}
	def = def.WithDefaults()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.definitions[def.ID]; exists {
		return fmt.Errorf("invalid_config: duplicate_id(%s)", def.ID)
	}
	m.definitions[def.ID] = def
	return nil
}

// RemoveProcess implements remove_process: stop first if running, then
// delete the definition.
func (m *Manager) RemoveProcess(ctx context.Context, id string) error {
	if m.isMonitored(id) {
		if err := m.StopProcess(ctx, id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.definitions[id]; !exists {
		return process.ErrNotFound
	}
	delete(m.definitions, id)
	delete(m.restartRing, id)
	return nil
}

func (m *Manager) isMonitored(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.monitors[id]
	return ok
}

// StartProcess implements start_process: a manual start, which resets
// both the Manager's restart budget and the Supervisor's tighter
// intensity ring. Auto-restart goes through startProcess directly and
// must not reset either budget, or max_restarts could never be enforced.
func (m *Manager) StartProcess(ctx context.Context, id string) error {
	return m.startProcess(ctx, id, true)
}

// startProcess is the shared implementation behind a manual start_process
// and an auto-restart. resetBudget is true only for the manual path.
func (m *Manager) startProcess(ctx context.Context, id string, resetBudget bool) error {
	m.mu.Lock()
	def, ok := m.definitions[id]
	if !ok {
		m.mu.Unlock()
		return process.ErrNotFound
	}
	if _, already := m.monitors[id]; already {
		m.mu.Unlock()
		return process.ErrAlreadyRunning
	}
	m.mu.Unlock()

	if resetBudget {
		m.mu.Lock()
		delete(m.restartRing, id)
		m.mu.Unlock()
		m.sup.Reset(id)
	}

	r, err := m.sup.StartRunner(ctx, def, m.globals)
	if err != nil {
		return err
	}

	token := uuid.New()
	m.mu.Lock()
	m.monitors[id] = &monitorEntry{runner: r, token: token}
	m.mu.Unlock()

	if err := m.reg.Register(id, r); err != nil {
		m.log.Warn("registry register failed", "id", id, "error", err)
	}

	metrics.IncStart(id)
	metrics.SetCurrentState(id, "running", true)
	m.log.Info("process_started", "id", id)

	go m.watch(id, r, token, def)
	return nil
}

// StopProcess implements stop_process.
func (m *Manager) StopProcess(ctx context.Context, id string) error {
	m.mu.Lock()
	entry, ok := m.monitors[id]
	if !ok {
		m.mu.Unlock()
		return process.ErrNotRunning
	}
	def := m.definitions[id]
	entry.dissolved = true // dissolve the link before dispatching shutdown
	m.mu.Unlock()

	err := m.sup.TerminateRunner(ctx, entry.runner, def, m.globals)

	m.mu.Lock()
	delete(m.monitors, id)
	m.mu.Unlock()
	m.reg.Unregister(id)
	metrics.IncStop(id)
	metrics.SetCurrentState(id, "running", false)

	if err != nil {
		m.log.Warn("process_stop_timeout", "id", id, "error", err)
		return fmt.Errorf("%w: %v", process.ErrStopTimeout, err)
	}
	m.log.Info("process_stopped", "id", id)
	return nil
}

// RestartProcess implements restart_process: exactly stop then start. The id is
// observably "stopped" between the two steps; monitors never holds two
// entries for it at once because StopProcess always deletes before
// returning.
func (m *Manager) RestartProcess(ctx context.Context, id string) error {
	if m.isMonitored(id) {
		if err := m.StopProcess(ctx, id); err != nil {
			return err
		}
	}
	return m.StartProcess(ctx, id)
}

// GetProcessStatus implements get_process_status.
func (m *Manager) GetProcessStatus(id string) (process.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, defined := m.definitions[id]; !defined {
		return process.StatusUnknown, process.ErrNotFound
	}
	entry, ok := m.monitors[id]
	if !ok {
		return process.StatusStopped, nil
	}
	return entry.runner.Info().Status, nil
}

// ListProcesses implements list_processes. A monitored runner whose Info()
// reports "failed" is listed as stopped. Once a crashed runner has been
// removed from monitors (including after its restart budget is exhausted),
// both this view and DetailStatus report it as stopped.
func (m *Manager) ListProcesses() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Summary, 0, len(m.definitions))
	for id, def := range m.definitions {
		status := process.StatusStopped
		if entry, ok := m.monitors[id]; ok {
			status = entry.runner.Info().Status
			if status == process.StatusFailed {
				status = process.StatusStopped
			}
		}
		out = append(out, Summary{ID: id, Name: def.Name, Status: status})
	}
	return out
}

// DetailStatus is get_process_status's richer sibling for the HTTP detail
// endpoint: for a monitored id it returns the runner's own state, so a
// "failed" status is passed through until watch removes the entry.
func (m *Manager) DetailStatus(id string) (process.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, defined := m.definitions[id]
	if !defined {
		return process.State{}, process.ErrNotFound
	}
	entry, ok := m.monitors[id]
	if !ok {
		return process.State{ID: id, Name: def.Name, Status: process.StatusStopped}, nil
	}
	return entry.runner.Info(), nil
}

// Definition returns a copy of id's declared definition, used by the
// platform probe and the health client to find what to inspect.
func (m *Manager) Definition(id string) (process.Definition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.definitions[id]
	return def, ok
}

// watch owns the single consumption of r.Done() for this (id, token) pair
// and implements crash detection plus auto-restart scheduling.
func (m *Manager) watch(id string, r *process.Runner, token uuid.UUID, def process.Definition) {
	notification := <-r.Done()

	m.mu.Lock()
	entry, ok := m.monitors[id]
	if !ok || entry.token != token {
		// Already superseded by a subsequent stop/restart; nothing to do.
		m.mu.Unlock()
		return
	}
	dissolved := entry.dissolved
	delete(m.monitors, id)
	m.mu.Unlock()
	m.reg.Unregister(id)
	metrics.SetCurrentState(id, "running", false)

	if dissolved {
		return // a clean, requested stop; StopProcess already handles bookkeeping
	}

	m.log.Warn("process_crashed", "id", id, "reason", notification.Reason, "exit_status", notification.ExitStatus)
	metrics.RecordStateTransition(id, "running", "crashed")

	if !def.AutoRestart {
		return
	}
	if !m.reserveRestart(id, def) {
		m.log.Warn("auto_restart_exhausted", "id", id)
		return
	}

	time.AfterFunc(autoRestartDelay, func() {
		metrics.IncRestart(id)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.startProcess(ctx, id, false); err != nil {
			m.log.Warn("auto_restart_failed", "id", id, "error", err)
		}
	})
}

// reserveRestart appends now to id's restart ring, drops entries older than
// the definition's restart window, and reports whether the attempt is
// still within max_restarts.
func (m *Manager) reserveRestart(id string, def process.Definition) bool {
	now := time.Now()
	window := time.Duration(def.RestartWindowSeconds) * time.Second
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-window)
	kept := m.restartRing[id][:0]
	for _, t := range m.restartRing[id] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= def.MaxRestarts {
		m.restartRing[id] = kept
		return false
	}
	m.restartRing[id] = append(kept, now)
	return true
}
