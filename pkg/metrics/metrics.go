// Package metrics provides Prometheus instrumentation for gotick components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for gotick components.
type Registry struct {
	// Scheduler Metrics
	EntriesRegistered *prometheus.GaugeVec
	TasksDispatched   *prometheus.CounterVec
	InstantSubmitted  *prometheus.CounterVec
	SubmitFailures    *prometheus.CounterVec
	SchedulerTicks    *prometheus.CounterVec
	TickDuration      *prometheus.HistogramVec
	InstantQueueDepth *prometheus.GaugeVec

	// Executor Metrics
	TasksExecuted    *prometheus.CounterVec
	TasksCompleted   *prometheus.CounterVec
	TasksFailed      *prometheus.CounterVec
	TaskDuration     *prometheus.HistogramVec
	ExecutorWorkers  *prometheus.GaugeVec
	ExecutorInFlight *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by gotick components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Scheduler Metrics
		EntriesRegistered: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gotick",
				Subsystem: "scheduler",
				Name:      "entries_registered",
				Help:      "Number of entries currently in the scheduler registry",
			},
			[]string{"scheduler_name"},
		),

		TasksDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gotick",
				Subsystem: "scheduler",
				Name:      "tasks_dispatched_total",
				Help:      "Total number of due entries dispatched to the executor",
			},
			[]string{"scheduler_name"},
		),

		InstantSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gotick",
				Subsystem: "scheduler",
				Name:      "instant_submitted_total",
				Help:      "Total number of instant tasks submitted",
			},
			[]string{"scheduler_name"},
		),

		SubmitFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gotick",
				Subsystem: "scheduler",
				Name:      "submit_failures_total",
				Help:      "Total number of executor submissions that failed",
			},
			[]string{"scheduler_name"},
		),

		SchedulerTicks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gotick",
				Subsystem: "scheduler",
				Name:      "ticks_total",
				Help:      "Total number of scheduling loop ticks",
			},
			[]string{"scheduler_name"},
		),

		TickDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gotick",
				Subsystem: "scheduler",
				Name:      "tick_duration_seconds",
				Help:      "Time spent in one scheduling loop tick",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scheduler_name"},
		),

		InstantQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gotick",
				Subsystem: "scheduler",
				Name:      "instant_queue_depth",
				Help:      "Number of instant tasks waiting to be drained",
			},
			[]string{"scheduler_name"},
		),

		// Executor Metrics
		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gotick",
				Subsystem: "executor",
				Name:      "tasks_executed_total",
				Help:      "Total number of tasks executed",
			},
			[]string{"executor_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gotick",
				Subsystem: "executor",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed successfully",
			},
			[]string{"executor_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gotick",
				Subsystem: "executor",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that failed",
			},
			[]string{"executor_name"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gotick",
				Subsystem: "executor",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"executor_name"},
		),

		ExecutorWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gotick",
				Subsystem: "executor",
				Name:      "workers",
				Help:      "Configured executor worker count",
			},
			[]string{"executor_name"},
		),

		ExecutorInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gotick",
				Subsystem: "executor",
				Name:      "in_flight",
				Help:      "Number of accepted submissions that have not resolved yet",
			},
			[]string{"executor_name"},
		),
	}
}
