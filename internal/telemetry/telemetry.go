// Package telemetry wires the ambient logging, tracing, and metrics
// stack shared by the driver, scheduler, and messaging packages. None of
// the core triad depends on a concrete telemetry backend: the driver and
// scheduler accept a *Hooks built here and messaging takes its logger,
// and the zero value is always safe to use.
package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Hooks bundles the observability dependencies threaded through the
// scheduler and messaging packages. A zero-value Hooks is fully usable:
// Log falls back to zap.NewNop(), StartSpan skips tracing when Tracer is
// nil, and metric fields are left nil (counters/gauges guard against that).
type Hooks struct {
	Logger  *zap.Logger
	Tracer  trace.Tracer
	Metrics *Metrics
}

// Metrics holds the Prometheus collectors this module exposes.
type Metrics struct {
	TasksPlaced  prometheus.Counter
	TasksInFlight prometheus.Gauge
}

// NewMetrics registers the module's collectors on reg and returns the
// handle used to update them. Pass a fresh prometheus.NewRegistry() in
// tests to avoid collisions with the default global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TasksPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sunway_tasks_placed_total",
			Help: "Total number of tasks placed by the scheduler.",
		}),
		TasksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sunway_tasks_inflight",
			Help: "Number of tasks in this host's local share while that share is running.",
		}),
	}
	reg.MustRegister(m.TasksPlaced, m.TasksInFlight)
	return m
}

// NewHooks builds a Hooks instance from a constructed logger and
// tracer. Either may be nil, in which case a no-op is substituted.
func NewHooks(logger *zap.Logger, tracer trace.Tracer, metrics *Metrics) *Hooks {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = otel.Tracer("github.com/dreamware/sunway")
	}
	return &Hooks{Logger: logger, Tracer: tracer, Metrics: metrics}
}

// NewProduction builds a zap production logger, the global otel tracer,
// and metrics registered against the default Prometheus registry. This
// is the entry point cmd/sunway uses; tests should prefer NewHooks with
// explicit nils or a scoped registry.
func NewProduction() (*Hooks, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewHooks(logger, otel.Tracer("github.com/dreamware/sunway"), NewMetrics(prometheus.DefaultRegisterer)), nil
}

// StartSpan starts a span named name if h and h.Tracer are non-nil,
// returning a no-op-safe context and a finish function that is always
// safe to call.
func (h *Hooks) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	if h == nil || h.Tracer == nil {
		return ctx, func() {}
	}
	ctx, span := h.Tracer.Start(ctx, name)
	return ctx, func() { span.End() }
}

// Log returns h's logger, or a no-op logger if h is nil.
func (h *Hooks) Log() *zap.Logger {
	if h == nil || h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// IncTasksPlaced increments the tasks-placed counter if metrics are
// configured.
func (h *Hooks) IncTasksPlaced() {
	if h == nil || h.Metrics == nil || h.Metrics.TasksPlaced == nil {
		return
	}
	h.Metrics.TasksPlaced.Inc()
}

// SetTasksInFlight sets the in-flight gauge if metrics are configured.
func (h *Hooks) SetTasksInFlight(n int) {
	if h == nil || h.Metrics == nil || h.Metrics.TasksInFlight == nil {
		return
	}
	h.Metrics.TasksInFlight.Set(float64(n))
}
