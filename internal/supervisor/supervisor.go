// Package supervisor implements the dynamic collection of Runners: it
// starts and terminates Runners on demand and enforces a tight
// restart-intensity cap as a safety net beneath the Manager's own,
// looser restart policy.
package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nurvus/nurvus/internal/env"
	"github.com/nurvus/nurvus/internal/process"
)

// intensityWindow and intensityMax implement the fixed "3 restarts in 5
// seconds" one-for-one policy. Unlike the Manager's per-definition
// budget, this cap is the same for every id and is not configurable.
const (
	intensityWindow = 5 * time.Second
	intensityMax    = 3
)

// shutdownBudget is how long TerminateRunner waits for a graceful exit
// before force-killing the Runner.
const shutdownBudget = 10 * time.Second

// Supervisor owns a set of Runners and bounds how often any one id may be
// (re)started through it.
type Supervisor struct {
	log *slog.Logger
	pc  process.PortChecker

	mu      sync.Mutex
	attempt map[string][]time.Time // id -> recent start attempt timestamps
}

func New(log *slog.Logger, pc process.PortChecker) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{log: log, pc: pc, attempt: make(map[string][]time.Time)}
}

// StartRunner spawns a fresh Runner for def. Every call (initial start,
// manual restart, or Manager-driven auto-restart) counts against the id's
// restart-intensity ring; once three attempts land within five seconds,
// further attempts are refused with ErrSupervisorRestartExceeded until the
// window decays.
func (s *Supervisor) StartRunner(ctx context.Context, def process.Definition, globals *env.Env) (*process.Runner, error) {
	if !s.allow(def.ID) {
		return nil, process.ErrSupervisorRestartExceeded
	}
	r := process.New(def.ID, def.Name, s.log)
	envSlice := process.BuildEnv(globals, def)
	if _, err := r.Start(ctx, def, envSlice, s.pc); err != nil {
		return nil, err
	}
	return r, nil
}

// TerminateRunner requests a graceful shutdown, escalating to an immediate
// Kill if the Runner has not confirmed termination within the 10 s
// shutdown budget.
func (s *Supervisor) TerminateRunner(ctx context.Context, r *process.Runner, def process.Definition, globals *env.Env) error {
	if r == nil {
		return process.ErrNotFound
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownBudget)
	defer cancel()
	envSlice := process.BuildEnv(globals, def)
	err := r.RequestGracefulShutdown(shutdownCtx, def, envSlice)
	if shutdownCtx.Err() != nil {
		_ = r.Kill()
	}
	return err
}

// allow records a start attempt for id and reports whether it falls within
// the intensity budget.
func (s *Supervisor) allow(id string) bool {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-intensityWindow)
	kept := s.attempt[id][:0]
	for _, t := range s.attempt[id] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= intensityMax {
		s.attempt[id] = kept
		return false
	}
	s.attempt[id] = append(kept, now)
	return true
}

// Reset clears id's restart-intensity ring; called by the Manager when a
// manual start_process resets the broader restart budget too.
func (s *Supervisor) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempt, id)
}
