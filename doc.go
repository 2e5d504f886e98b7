/*
Package gotick provides a lightweight in-process task scheduler for Go
applications, with recurring fixed-interval dispatch, on-demand instant
submissions, and interchangeable execution backends.

Scheduling (pkg/scheduling):
  - schedule: dispatch policies (fixed interval)
  - executor: worker backends (shared-memory goroutines, isolated worker processes)
  - scheduler: entry registry, tick loop, instant-submission queue

Observability (pkg/metrics): Prometheus instrumentation for schedulers and
executors.

Example usage:

	import (
		"github.com/vnykmshr/gotick/pkg/scheduling/schedule"
		"github.com/vnykmshr/gotick/pkg/scheduling/scheduler"
	)

	s := scheduler.New()

	hello, _ := s.Register("hello", func(ctx context.Context, args ...interface{}) (interface{}, error) {
		fmt.Println("hello")
		return nil, nil
	})
	s.RegisterScheduled(hello, schedule.MustInterval(5*time.Second))

	s.Run(context.Background())
*/
package gotick
