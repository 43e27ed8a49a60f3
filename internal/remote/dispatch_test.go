package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurvus/nurvus/internal/config"
	"github.com/nurvus/nurvus/internal/manager"
	"github.com/nurvus/nurvus/internal/process"
	"github.com/nurvus/nurvus/internal/registry"
	"github.com/nurvus/nurvus/internal/supervisor"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	mgr := manager.New(nil, supervisor.New(nil, nil), registry.New(), nil)
	require.NoError(t, mgr.AddProcess(process.Definition{ID: "web", Name: "web", Command: "sleep", Args: []string{"30"}}))
	settings := config.Settings{Port: 4001, ConfigFile: "/tmp/processes.json"}
	return NewDispatcher(mgr, settings, "node-a", []string{"node-b"})
}

func TestDispatchUnknownCommandErrors(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Dispatch(context.Background(), []string{"frobnicate"})
	assert.Error(t, err)
}

func TestDispatchListAndStartStop(t *testing.T) {
	d := newTestDispatcher(t)

	res, err := d.Dispatch(context.Background(), []string{"list"})
	require.NoError(t, err)
	summaries, ok := res.([]manager.Summary)
	require.True(t, ok)
	assert.Len(t, summaries, 1)

	_, err = d.Dispatch(context.Background(), []string{"start", "web"})
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), []string{"stop", "web"})
	require.NoError(t, err)
}

func TestDispatchStatusTakesNoArguments(t *testing.T) {
	d := newTestDispatcher(t)

	res, err := d.Dispatch(context.Background(), []string{"status"})
	require.NoError(t, err)
	status, ok := res.(SystemStatus)
	require.True(t, ok)
	assert.Len(t, status.Processes, 1)

	_, err = d.Dispatch(context.Background(), []string{"status", "web"})
	assert.Error(t, err)
}

func TestDispatchClusterInfo(t *testing.T) {
	d := newTestDispatcher(t)
	res, err := d.Dispatch(context.Background(), []string{"cluster", "info"})
	require.NoError(t, err)
	info, ok := res.(ClusterInfo)
	require.True(t, ok)
	assert.Equal(t, "node-a", info.NodeID)
	assert.Equal(t, []string{"node-b"}, info.Peers)
}

func TestDispatchConfigGetAndList(t *testing.T) {
	d := newTestDispatcher(t)
	res, err := d.Dispatch(context.Background(), []string{"config", "get", "port"})
	require.NoError(t, err)
	assert.Equal(t, 4001, res)

	_, err = d.Dispatch(context.Background(), []string{"config", "get", "nonexistent"})
	assert.Error(t, err)

	res, err = d.Dispatch(context.Background(), []string{"config", "list"})
	require.NoError(t, err)
	_, ok := res.(config.Settings)
	assert.True(t, ok)
}
