// Package metrics provides Prometheus instrumentation for gotick components.
//
// The metrics package provides automatic instrumentation for:
//   - Scheduling (registered entries, dispatched tasks, tick counts and durations)
//   - Instant submissions (submitted tasks, queue depth)
//   - Executors (executed, completed, failed tasks, execution durations)
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	exec, err := executor.NewWithMetrics(executor.Config{Workers: 4}, "task_pool")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	config := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	}
//
// Each metrics-enabled component accepts a metrics.Config so tests and
// embedding applications can keep their own registries.
package metrics
