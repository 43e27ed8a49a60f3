package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurvus/nurvus/internal/manager"
	"github.com/nurvus/nurvus/internal/process"
	"github.com/nurvus/nurvus/internal/registry"
	"github.com/nurvus/nurvus/internal/supervisor"
)

func newTestRouter(t *testing.T) (*Router, *manager.Manager) {
	t.Helper()
	sup := supervisor.New(nil, nil)
	reg := registry.New()
	mgr := manager.New(nil, sup, reg, nil)
	return NewRouter(mgr, nil), mgr
}

func TestHealthEndpointNoProcesses(t *testing.T) {
	rt, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpointDegraded(t *testing.T) {
	rt, mgr := newTestRouter(t)
	require.NoError(t, mgr.AddProcess(process.Definition{ID: "a", Name: "a", Command: "sleep", Args: []string{"30"}}))
	require.NoError(t, mgr.AddProcess(process.Definition{ID: "b", Name: "b", Command: "sleep", Args: []string{"30"}}))
	require.NoError(t, mgr.StartProcess(context.Background(), "a"))
	defer func() { _ = mgr.StopProcess(context.Background(), "a") }()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body healthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, 2, body.Processes["total"])
	assert.Equal(t, 1, body.Processes["running"])
}

func TestGetProcessNotFound(t *testing.T) {
	rt, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/processes/ghost", nil)
	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartStopViaHTTP(t *testing.T) {
	rt, mgr := newTestRouter(t)
	require.NoError(t, mgr.AddProcess(process.Definition{ID: "echo-srv", Name: "echo-srv", Command: "sleep", Args: []string{"60"}}))

	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/processes/echo-srv/start", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/processes/echo-srv", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "running", body["status"])

	w = httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/processes/echo-srv/stop", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
