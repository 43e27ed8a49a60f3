package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := New(Config{BaseURL: srv.URL})
	return c, srv.Close
}

func TestHealthDecodesBody(t *testing.T) {
	c, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(HealthBody{Status: "healthy", Processes: map[string]int{"total": 1}})
	})
	defer closeSrv()

	body, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", body.Status)
}

func TestStartProcessPropagatesAPIError(t *testing.T) {
	c, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Process not found"})
	})
	defer closeSrv()

	err := c.StartProcess(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Process not found")
}

func TestIsReachable(t *testing.T) {
	c, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer closeSrv()

	assert.True(t, c.IsReachable(context.Background()))
}
