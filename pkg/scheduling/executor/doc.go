/*
Package executor provides the worker-pool abstraction that runs gotick task
bodies, decoupling dispatch policy from the execution backend.

Two backends implement the same Executor interface:

  - Goroutines: a fixed pool of goroutines sharing the host's memory. Suited
    to I/O-bound work; arguments and results are passed without any
    serialization boundary.
  - Processes: each task runs in an isolated worker process (the host binary
    re-executed in worker mode). Suited to CPU-bound work; the task name and
    every argument must survive gob encoding, and a payload that cannot be
    encoded fails at submit time with errors.ErrNotSerializable.

Basic usage:

	exec, err := executor.New(executor.Config{
		Kind:    executor.Goroutines,
		Workers: 4,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer exec.Shutdown(true)

	h, err := exec.Submit(ctx, executor.Invocation{
		Name: "report",
		Func: func(ctx context.Context, args ...interface{}) (interface{}, error) {
			return buildReport(args[0].(string))
		},
		Args: []interface{}{"daily"},
	})
	if err != nil {
		log.Fatal(err)
	}

	value, err := h.Result(ctx)

The underlying pool starts lazily on the first submission and is created at
most once. Shutdown(wait) stops intake immediately and, with wait=true,
blocks until every accepted submission has resolved. After shutdown all
submissions fail with errors.ErrShutdown; the pool is never recreated.

Process backend contract:

The worker process cannot receive code, so tasks are dispatched by name
through a Registry compiled into the binary. Host programs must route worker
invocations at the top of main:

	func main() {
		if executor.IsWorker() {
			executor.RunWorker(reg)
		}
		// normal program flow
	}

Argument and result values carried as interface{} must be registered with
encoding/gob on both sides; common scalars, time.Time and
map[string]interface{} are pre-registered.

Limits:

Config.TaskTimeout is accepted for forward compatibility but not enforced:
there is no per-task execution limit and no cancellation of submitted work.
Shutdown(wait=true) is the only way to await outstanding tasks.
*/
package executor
