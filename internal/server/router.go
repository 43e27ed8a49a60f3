// Package server implements the HTTP control surface: a JSON API over
// gin-gonic/gin exposing Manager operations and system status.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nurvus/nurvus/internal/manager"
	"github.com/nurvus/nurvus/internal/metrics"
	"github.com/nurvus/nurvus/internal/process"
	"github.com/nurvus/nurvus/internal/remote"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// Router exposes the Manager over HTTP.
type Router struct {
	mgr        *manager.Manager
	dispatcher *remote.Dispatcher
	engine     *gin.Engine
}

// NewRouter wires every control-surface endpoint onto a fresh gin engine.
// dispatcher may be nil, in which case /api/command is not registered (used
// by tests that only exercise the REST endpoints).
func NewRouter(mgr *manager.Manager, dispatcher *remote.Dispatcher) *Router {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	rt := &Router{mgr: mgr, dispatcher: dispatcher, engine: e}
	e.GET("/health", rt.handleHealth)
	e.GET("/api/system/status", rt.handleSystemStatus)
	e.GET("/api/platform", rt.handlePlatform)
	e.GET("/api/processes", rt.handleListProcesses)
	e.GET("/api/processes/:id", rt.handleGetProcess)
	e.POST("/api/processes/:id/start", rt.handleStart)
	e.POST("/api/processes/:id/stop", rt.handleStop)
	e.POST("/api/processes/:id/restart", rt.handleRestart)
	if dispatcher != nil {
		e.POST("/api/command", rt.handleCommand)
	}
	e.GET("/metrics", gin.WrapH(metrics.Handler()))
	return rt
}

// Handler exposes the underlying http.Handler for use with http.Server.
func (rt *Router) Handler() http.Handler { return rt.engine }

// NewServer builds an *http.Server bound to addr with the timeouts the
// control surface's "no request should hang the API indefinitely"
// guarantee requires.
func NewServer(addr string, mgr *manager.Manager, dispatcher *remote.Dispatcher) *http.Server {
	rt := NewRouter(mgr, dispatcher)
	return &http.Server{
		Addr:              addr,
		Handler:           rt.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

type healthBody struct {
	Status     string         `json:"status"`
	Processes  map[string]int `json:"processes"`
}

func (rt *Router) handleHealth(c *gin.Context) {
	list := rt.mgr.ListProcesses()
	total := len(list)
	running := 0
	for _, p := range list {
		if p.Status == process.StatusRunning {
			running++
		}
	}
	status := healthStatus(total, running)
	body := healthBody{
		Status: status,
		Processes: map[string]int{
			"total":   total,
			"running": running,
			"stopped": total - running,
		},
	}
	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(c, code, body)
}

// healthStatus aggregates per-process status into the overall health body.
func healthStatus(total, running int) string {
	switch {
	case total == 0:
		return "healthy"
	case running == 0:
		return "unhealthy"
	case running < total:
		return "degraded"
	default:
		return "healthy"
	}
}

func (rt *Router) handleSystemStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"platform":  metrics.CurrentPlatform(),
		"processes": rt.mgr.ListProcesses(),
	})
}

func (rt *Router) handlePlatform(c *gin.Context) {
	writeJSON(c, http.StatusOK, metrics.CurrentPlatform())
}

func (rt *Router) handleListProcesses(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"processes": rt.mgr.ListProcesses()})
}

func (rt *Router) handleGetProcess(c *gin.Context) {
	id := c.Param("id")
	if !isSafeName(id) {
		writeJSON(c, http.StatusNotFound, gin.H{"error": "Process not found"})
		return
	}
	state, err := rt.mgr.DetailStatus(id)
	if err != nil {
		writeProcessError(c, err)
		return
	}
	body := gin.H{"id": state.ID, "status": state.Status}
	if state.Status == process.StatusRunning && state.OSPid != 0 {
		if m, err := metrics.Sample(c.Request.Context(), int32(state.OSPid)); err == nil {
			body["metrics"] = m
		}
	}
	writeJSON(c, http.StatusOK, body)
}

func (rt *Router) handleStart(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()
	if err := rt.mgr.StartProcess(ctx, id); err != nil {
		writeProcessError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "started"})
}

func (rt *Router) handleStop(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 11*time.Second)
	defer cancel()
	if err := rt.mgr.StopProcess(ctx, id); err != nil {
		writeProcessError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "stopped"})
}

func (rt *Router) handleRestart(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 22*time.Second)
	defer cancel()
	if err := rt.mgr.RestartProcess(ctx, id); err != nil {
		writeProcessError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "restarted"})
}

// commandRequest is the body of POST /api/command: the same argv vocabulary
// the remote command surface accepts from a local CLI invocation.
type commandRequest struct {
	Argv []string `json:"argv"`
}

func (rt *Router) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := rt.dispatcher.Dispatch(c.Request.Context(), req.Argv)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, result)
}

// writeProcessError translates the lifecycle-error taxonomy to HTTP status
// codes: 404 for not_found, 500 for everything else.
func writeProcessError(c *gin.Context, err error) {
	if errors.Is(err, process.ErrNotFound) {
		writeJSON(c, http.StatusNotFound, gin.H{"error": "Process not found"})
		return
	}
	writeJSON(c, http.StatusInternalServerError, gin.H{"error": err.Error()})
}
