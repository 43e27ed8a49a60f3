// Package metrics implements the metrics exporter: Prometheus
// counters/gauges for process lifecycle events, served on the control
// surface alongside the platform probe's resource gauges.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	regOK atomic.Bool

	processStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nurvus",
			Subsystem: "process",
			Name:      "starts_total",
			Help:      "Number of successful process starts.",
		}, []string{"id"},
	)
	processRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nurvus",
			Subsystem: "process",
			Name:      "restarts_total",
			Help:      "Number of auto restarts.",
		}, []string{"id"},
	)
	processStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nurvus",
			Subsystem: "process",
			Name:      "stops_total",
			Help:      "Number of stops (graceful or kill).",
		}, []string{"id"},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nurvus",
			Subsystem: "process",
			Name:      "state_transitions_total",
			Help:      "Number of state transitions between different process states.",
		}, []string{"id", "from", "to"},
	)
	currentStates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "nurvus",
			Subsystem: "process",
			Name:      "current_state",
			Help:      "Current state of processes (1 = active state, 0 = inactive).",
		}, []string{"id", "state"},
	)
)

// Register registers all metrics with the provided registerer. It is safe
// to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{processStarts, processRestarts, processStops, stateTransitions, currentStates}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the
// DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

func IncStart(id string) {
	if regOK.Load() {
		processStarts.WithLabelValues(id).Inc()
	}
}

func IncRestart(id string) {
	if regOK.Load() {
		processRestarts.WithLabelValues(id).Inc()
	}
}

func IncStop(id string) {
	if regOK.Load() {
		processStops.WithLabelValues(id).Inc()
	}
}

func RecordStateTransition(id, from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(id, from, to).Inc()
	}
}

func SetCurrentState(id, state string, active bool) {
	if regOK.Load() {
		var value float64
		if active {
			value = 1
		}
		currentStates.WithLabelValues(id, state).Set(value)
	}
}
