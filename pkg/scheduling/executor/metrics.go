package executor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/gotick/pkg/metrics"
)

// MetricsExecutor wraps an Executor with Prometheus metrics collection.
type MetricsExecutor struct {
	exec     Executor
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates an executor with metrics enabled on a private registry.
func NewWithMetrics(cfg Config, name string) (Executor, error) {
	registry := prometheus.NewRegistry()
	return NewWithConfigAndMetrics(cfg, name, metrics.Config{
		Enabled:  true,
		Registry: registry,
	})
}

// NewWithConfigAndMetrics creates an executor with custom config and metrics.
func NewWithConfigAndMetrics(cfg Config, name string, metricsConfig metrics.Config) (Executor, error) {
	base, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return base, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	me := &MetricsExecutor{
		exec:     base,
		name:     name,
		registry: registry,
		enabled:  true,
	}
	me.registry.ExecutorWorkers.WithLabelValues(me.name).Set(float64(base.Size()))

	return me, nil
}

// Submit adds a task to the executor and records its outcome when it resolves.
func (me *MetricsExecutor) Submit(ctx context.Context, inv Invocation) (*Handle, error) {
	h := NewHandle()
	if err := me.SubmitBound(ctx, inv, h); err != nil {
		return nil, err
	}
	return h, nil
}

// SubmitBound submits into a caller-provided handle and records metrics.
func (me *MetricsExecutor) SubmitBound(ctx context.Context, inv Invocation, h *Handle) error {
	if err := me.exec.SubmitBound(ctx, inv, h); err != nil {
		return err
	}

	if me.enabled {
		me.registry.TasksExecuted.WithLabelValues(me.name).Inc()
		me.registry.ExecutorInFlight.WithLabelValues(me.name).Inc()
		go me.observe(h, time.Now())
	}
	return nil
}

// observe waits for the handle to resolve and records duration and outcome.
// Duration is measured from submission, so it includes queue wait.
func (me *MetricsExecutor) observe(h *Handle, submitted time.Time) {
	<-h.Done()

	me.registry.ExecutorInFlight.WithLabelValues(me.name).Dec()
	me.registry.TaskDuration.WithLabelValues(me.name).Observe(time.Since(submitted).Seconds())
	if _, err, _ := h.Poll(); err != nil {
		me.registry.TasksFailed.WithLabelValues(me.name).Inc()
	} else {
		me.registry.TasksCompleted.WithLabelValues(me.name).Inc()
	}
}

// Shutdown shuts down the wrapped executor.
func (me *MetricsExecutor) Shutdown(wait bool) error {
	return me.exec.Shutdown(wait)
}

// Kind reports the wrapped executor's backend kind.
func (me *MetricsExecutor) Kind() Kind {
	return me.exec.Kind()
}

// Size returns the wrapped executor's worker-count bound.
func (me *MetricsExecutor) Size() int {
	return me.exec.Size()
}

// EnableMetrics enables metrics collection.
func (me *MetricsExecutor) EnableMetrics(config metrics.Config) error {
	me.enabled = config.Enabled
	if config.Registry != nil {
		me.registry = metrics.NewRegistry(config.Registry)
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (me *MetricsExecutor) DisableMetrics() {
	me.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (me *MetricsExecutor) MetricsEnabled() bool {
	return me.enabled
}
