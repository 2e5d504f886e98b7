/*
Package scheduler provides an in-process, single-host task scheduler with
two dispatch modes: fixed-interval recurring entries and on-demand instant
submissions, both routed through a pluggable executor backend.

Basic usage:

	s, err := scheduler.NewWithConfig(scheduler.Config{
		Workers: 4,
	})
	if err != nil {
		log.Fatal(err)
	}

	report, err := s.Register("report", func(ctx context.Context, args ...interface{}) (interface{}, error) {
		return buildReport()
	})
	if err != nil {
		log.Fatal(err)
	}

	if _, err := s.RegisterScheduled(report, schedule.MustInterval(5*time.Second)); err != nil {
		log.Fatal(err)
	}

	// Blocking; use Start(ctx) for a detached background loop.
	if err := s.Run(context.Background()); err != nil {
		log.Fatal(err)
	}

Instant submissions return a handle resolving to the task's value or its
captured error:

	h, err := s.SubmitInstant(report, "quarterly")
	if err != nil {
		log.Fatal(err)
	}
	value, err := h.Result(ctx)

A bound task can also self-submit with Task.Submit. Instant submissions go
through a bounded FIFO queue drained by the tick loop after due entries, so
recurring and instant work share one dispatch path and one backpressure
bound.

# Scheduling semantics

One tick evaluates every registered entry against its schedule policy,
submits the due ones to the executor, then drains the instant queue. The
loop then sleeps for the minimum remaining time across entries, capped at
one second so new registrations and instant work are noticed promptly.

Cadence is measured from dispatch time, not completion time. If a task runs
longer than its interval, the next tick dispatches it again concurrently:
the baseline contract is at-least-once-per-interval, not mutual exclusion.
Entries registered with WithInFlightGuard opt into skipping dispatch while
the previous one is unresolved.

# Lifecycle and failure policy

A scheduler moves Created -> Running -> Stopped, and Stopped is terminal.
Task errors resolve the submission's handle and never disturb the loop.
Submission failures are logged per entry and the pass continues. A failure
in the tick logic itself is fatal: the loop stops and shutdown runs, with no
automatic restart.

Shutdown is idempotent and waits for outstanding work on an owned executor.
Registry and queue contents are in-memory only and are lost on shutdown.
*/
package scheduler
