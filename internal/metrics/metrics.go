// Package metrics exposes Prometheus instrumentation for editing sessions,
// composition resolves, persistence and media probing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clipforge"

// Resolve outcomes.
const (
	ResolvePublished = "published"
	ResolveStale     = "stale"
	ResolveCancelled = "cancelled"
	ResolveFailed    = "failed"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	commandsApplied *prometheus.CounterVec
	historySteps    *prometheus.CounterVec
	resolves        *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	planSegments    prometheus.Gauge
	planSkipped     prometheus.Gauge
	saves           *prometheus.CounterVec
	probes          *prometheus.CounterVec
	exports         *prometheus.CounterVec
}

// New creates a registry with every collector registered, plus the Go and
// process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		commandsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_applied_total",
				Help:      "Editing commands applied, by command name and whether they changed the document",
			},
			[]string{"command", "changed"},
		),
		historySteps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_steps_total",
				Help:      "Undo and redo steps performed",
			},
			[]string{"direction"},
		),
		resolves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolves_total",
				Help:      "Composition resolves by outcome",
			},
			[]string{"outcome"},
		),
		resolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Duration of composition resolves",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		planSegments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plan_segments",
				Help:      "Segments in the latest published plan",
			},
		),
		planSkipped: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plan_skipped_clips",
				Help:      "Clips skipped by the latest published plan",
			},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "project_saves_total",
				Help:      "Project saves by status",
			},
			[]string{"status"},
		),
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "media_probes_total",
				Help:      "Media probes that reached the prober, by status",
			},
			[]string{"status"},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Exports by backend and status",
			},
			[]string{"backend", "status"},
		),
	}

	registry.MustRegister(
		m.commandsApplied,
		m.historySteps,
		m.resolves,
		m.resolveDuration,
		m.planSegments,
		m.planSkipped,
		m.saves,
		m.probes,
		m.exports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CommandApplied(name string, changed bool) {
	if m == nil {
		return
	}
	m.commandsApplied.WithLabelValues(name, boolLabel(changed)).Inc()
}

func (m *Metrics) Undo() {
	if m == nil {
		return
	}
	m.historySteps.WithLabelValues("undo").Inc()
}

func (m *Metrics) Redo() {
	if m == nil {
		return
	}
	m.historySteps.WithLabelValues("redo").Inc()
}

// ResolveFinished records one resolve. Duration is only observed for
// resolves that ran to completion.
func (m *Metrics) ResolveFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.resolves.WithLabelValues(outcome).Inc()
	if outcome == ResolvePublished || outcome == ResolveStale {
		m.resolveDuration.Observe(d.Seconds())
	}
}

// PlanPublished records the shape of the newest published plan.
func (m *Metrics) PlanPublished(segments, skipped int) {
	if m == nil {
		return
	}
	m.planSegments.Set(float64(segments))
	m.planSkipped.Set(float64(skipped))
}

func (m *Metrics) Saved(err error) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(statusLabel(err)).Inc()
}

func (m *Metrics) Probed(err error) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(statusLabel(err)).Inc()
}

func (m *Metrics) Exported(backend string, err error) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(backend, statusLabel(err)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
