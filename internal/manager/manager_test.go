package manager

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurvus/nurvus/internal/process"
	"github.com/nurvus/nurvus/internal/registry"
	"github.com/nurvus/nurvus/internal/supervisor"
)

func newTestManager() *Manager {
	sup := supervisor.New(nil, nil)
	reg := registry.New()
	return New(nil, sup, reg, nil)
}

func sleepDef(id string, seconds int) process.Definition {
	return process.Definition{
		ID:      id,
		Name:    id,
		Command: "sleep",
		Args:    []string{strconv.Itoa(seconds)},
	}
}

func TestAddProcessDuplicateID(t *testing.T) {
	m := newTestManager()
	def := sleepDef("worker", 5)
	require.NoError(t, m.AddProcess(def))
	err := m.AddProcess(def)
	require.Error(t, err)
}

func TestStartStopLifecycle(t *testing.T) {
	m := newTestManager()
	def := sleepDef("echo-srv", 60)
	require.NoError(t, m.AddProcess(def))

	ctx := context.Background()
	require.NoError(t, m.StartProcess(ctx, "echo-srv"))

	status, err := m.GetProcessStatus("echo-srv")
	require.NoError(t, err)
	assert.Equal(t, process.StatusRunning, status)

	err = m.StartProcess(ctx, "echo-srv")
	assert.ErrorIs(t, err, process.ErrAlreadyRunning)

	require.NoError(t, m.StopProcess(ctx, "echo-srv"))
	status, err = m.GetProcessStatus("echo-srv")
	require.NoError(t, err)
	assert.Equal(t, process.StatusStopped, status)
}

func TestStopProcessNotRunning(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddProcess(sleepDef("idle", 5)))
	err := m.StopProcess(context.Background(), "idle")
	assert.ErrorIs(t, err, process.ErrNotRunning)
}

func TestGetProcessStatusNotFound(t *testing.T) {
	m := newTestManager()
	_, err := m.GetProcessStatus("ghost")
	assert.ErrorIs(t, err, process.ErrNotFound)
}

func TestListProcessesReflectsLifecycle(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddProcess(sleepDef("a", 30)))
	require.NoError(t, m.AddProcess(sleepDef("b", 30)))

	ctx := context.Background()
	require.NoError(t, m.StartProcess(ctx, "a"))
	defer func() { _ = m.StopProcess(ctx, "a") }()

	list := m.ListProcesses()
	require.Len(t, list, 2)
	byID := map[string]Summary{}
	for _, s := range list {
		byID[s.ID] = s
	}
	assert.Equal(t, process.StatusRunning, byID["a"].Status)
	assert.Equal(t, process.StatusStopped, byID["b"].Status)
}

func TestAutoRestartAfterCrash(t *testing.T) {
	m := newTestManager()
	def := process.Definition{
		ID:                   "crasher",
		Name:                 "crasher",
		Command:              "sh",
		Args:                 []string{"-c", "exit 1"},
		AutoRestart:          true,
		MaxRestarts:          3,
		RestartWindowSeconds: 60,
	}
	require.NoError(t, m.AddProcess(def))
	ctx := context.Background()
	require.NoError(t, m.StartProcess(ctx, "crasher"))

	// The crash fires almost immediately; the restart is fenced at >=1s.
	deadline := time.Now().Add(3 * time.Second)
	sawRunningAgain := false
	for time.Now().Before(deadline) {
		status, err := m.GetProcessStatus("crasher")
		require.NoError(t, err)
		if status == process.StatusRunning {
			sawRunningAgain = true
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert.True(t, sawRunningAgain, "expected auto-restart to bring crasher back to running")
	_ = m.StopProcess(ctx, "crasher")
}

func TestAutoRestartExhaustionStaysStopped(t *testing.T) {
	m := newTestManager()
	def := process.Definition{
		ID:                   "flapper",
		Name:                 "flapper",
		Command:              "sh",
		Args:                 []string{"-c", "exit 1"},
		AutoRestart:          true,
		MaxRestarts:          2,
		RestartWindowSeconds: 60,
	}
	require.NoError(t, m.AddProcess(def))
	ctx := context.Background()
	require.NoError(t, m.StartProcess(ctx, "flapper"))

	// Initial start plus 2 permitted auto-restarts, each fenced at >=1s,
	// then the 3rd crash must hit max_restarts and stay stopped.
	deadline := time.Now().Add(6 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}

	status, err := m.GetProcessStatus("flapper")
	require.NoError(t, err)
	assert.Equal(t, process.StatusStopped, status)

	// Confirm it stays stopped rather than eventually restarting again.
	time.Sleep(2 * time.Second)
	status, err = m.GetProcessStatus("flapper")
	require.NoError(t, err)
	assert.Equal(t, process.StatusStopped, status)
}

func TestRemoveProcessStopsFirst(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddProcess(sleepDef("gone", 30)))
	ctx := context.Background()
	require.NoError(t, m.StartProcess(ctx, "gone"))
	require.NoError(t, m.RemoveProcess(ctx, "gone"))
	_, err := m.GetProcessStatus("gone")
	assert.ErrorIs(t, err, process.ErrNotFound)
}
