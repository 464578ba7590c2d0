// Package metrics exposes prometheus collectors for sessions, players and
// event delivery.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/llehouerou/spotbridge/internal/engine"
)

const ns = "spotbridge"

const (
	LabelOp     = "op"
	LabelResult = "result"
	LabelType   = "type"
	LabelTask   = "task"

	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds every collector. Use New to get a registered set.
type Metrics struct {
	Registry *prometheus.Registry

	Generation       prometheus.Gauge
	PlayerActive     prometheus.Gauge
	Lifecycle        *prometheus.CounterVec
	LifecycleSeconds *prometheus.HistogramVec
	Events           *prometheus.CounterVec
	EngineFailures   prometheus.Counter
	TaskFailures     *prometheus.CounterVec
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "session_generation",
			Help:      "Generation of the current session.",
		}),
		PlayerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "player_active",
			Help:      "1 while a player is initialized.",
		}),
		Lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "lifecycle_total",
			Help:      "Lifecycle commands by operation and result.",
		}, []string{LabelOp, LabelResult}),
		LifecycleSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "lifecycle_seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{LabelOp}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "events_total",
			Help:      "Playback events delivered by type.",
		}, []string{LabelType}),
		EngineFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "engine_failures_total",
		}),
		TaskFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "background_task_failures_total",
		}, []string{LabelTask}),
	}
	m.Registry.MustRegister(
		m.Generation,
		m.PlayerActive,
		m.Lifecycle,
		m.LifecycleSeconds,
		m.Events,
		m.EngineFailures,
		m.TaskFailures,
	)
	return m
}

// ObserveLifecycle records one lifecycle command.
func (m *Metrics) ObserveLifecycle(op string, elapsed time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.Lifecycle.WithLabelValues(op, result).Inc()
	m.LifecycleSeconds.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveTask counts failed background tasks. Its signature matches
// tasks.DoneFunc.
func (m *Metrics) ObserveTask(name string, _ time.Duration, err error) {
	if err != nil {
		m.TaskFailures.WithLabelValues(taskKind(name)).Inc()
	}
}

// Publish counts events. Metrics is usable as a bridge sink.
func (m *Metrics) Publish(_ context.Context, ev engine.Event) error {
	m.Events.WithLabelValues(string(ev.Type())).Inc()
	return nil
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// taskKind strips the generation suffix so labels stay bounded.
func taskKind(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ' ' {
			return name[:i]
		}
	}
	return name
}
