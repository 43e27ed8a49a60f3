// Command nurvus is the per-node process-supervision agent: it loads a
// process-definition file, supervises every declared process, and exposes
// the HTTP Control Surface for local and remote operators.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/nurvus/nurvus/internal/config"
	"github.com/nurvus/nurvus/internal/env"
	"github.com/nurvus/nurvus/internal/healthclient"
	"github.com/nurvus/nurvus/internal/logger"
	"github.com/nurvus/nurvus/internal/manager"
	"github.com/nurvus/nurvus/internal/metrics"
	"github.com/nurvus/nurvus/internal/portcheck"
	"github.com/nurvus/nurvus/internal/process"
	"github.com/nurvus/nurvus/internal/registry"
	"github.com/nurvus/nurvus/internal/remote"
	"github.com/nurvus/nurvus/internal/server"
	"github.com/nurvus/nurvus/internal/supervisor"
)

func main() {
	settings := config.LoadSettings()
	log := logger.New(logger.Config{Dir: settings.LogDir})

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Error("metrics registration failed", "error", err)
		os.Exit(1)
	}

	defs, err := config.Load(settings.ConfigFile)
	if err != nil {
		log.Error("failed to load process definitions", "path", settings.ConfigFile, "error", err)
		defs = nil
	}

	reg := registry.New()
	pc := portcheck.New(log)
	sup := supervisor.New(log, pc)
	globals := env.New()
	mgr := manager.New(log, sup, reg, globals)

	for _, def := range defs {
		if err := mgr.AddProcess(def); err != nil {
			log.Error("failed to register process", "id", def.ID, "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU() * 4)

	for _, def := range defs {
		id := def.ID
		group.Go(func() error {
			if err := mgr.StartProcess(gctx, id); err != nil {
				log.Warn("start_at_boot_failed", "id", id, "error", err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		log.Error("boot sequence failed", "error", err)
	}

	dispatcher := remote.NewDispatcher(mgr, settings, settings.NodeID, settings.Peers)
	httpServer := server.NewServer(fmt.Sprintf(":%d", settings.Port), mgr, dispatcher)
	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("control_surface_listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- err
			return
		}
		serveErrCh <- nil
	}()

	go runHealthPollers(ctx, mgr, defs, log)
	go runPlatformProbe(ctx, mgr, defs, log)

	select {
	case <-ctx.Done():
		log.Info("shutdown_signal_received")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("control_surface_failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = httpServer.Shutdown(shutdownCtx)
	cancel()

	stopAll(mgr, defs, log)
}

// stopAll stops every currently-monitored process with a bounded budget
// per id, so one stuck stop cannot hang agent shutdown indefinitely.
func stopAll(mgr *manager.Manager, defs []process.Definition, log *slog.Logger) {
	for _, def := range defs {
		ctx, cancel := context.WithTimeout(context.Background(), 11*time.Second)
		if err := mgr.StopProcess(ctx, def.ID); err != nil && err != process.ErrNotRunning {
			log.Warn("shutdown_stop_failed", "id", def.ID, "error", err)
		}
		cancel()
	}
}

// runHealthPollers drives each definition's declared health_check in the
// background. Results are logged only: the Health Client never feeds back
// into lifecycle decisions.
func runHealthPollers(ctx context.Context, mgr *manager.Manager, defs []process.Definition, log *slog.Logger) {
	client := healthclient.New()
	for _, def := range defs {
		if def.HealthCheck == nil || def.HealthCheck.URL == "" {
			continue
		}
		go client.Poll(ctx, def.HealthCheck.URL, def.HealthCheck.Interval, def.HealthCheck.Timeout, func(res healthclient.Result) {
			if !res.Healthy {
				log.Warn("health_check_failed", "id", def.ID, "status", res.StatusCode, "error", res.Err)
			}
		})
	}
	<-ctx.Done()
}

// runPlatformProbe samples resource usage for every running process on a
// fixed interval and publishes it to the metrics exporter.
func runPlatformProbe(ctx context.Context, mgr *manager.Manager, defs []process.Definition, log *slog.Logger) {
	ticker := time.NewTicker(metrics.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, def := range defs {
				state, err := mgr.DetailStatus(def.ID)
				if err != nil || state.Status != process.StatusRunning || state.OSPid == 0 {
					continue
				}
				sample, err := metrics.Sample(ctx, int32(state.OSPid))
				if err != nil {
					continue
				}
				metrics.PublishResourceSample(def.ID, sample)
			}
		}
	}
}
