package executor

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	gterrors "github.com/vnykmshr/gotick/pkg/common/errors"
)

// TaskFunc is the unit of work executed by an executor backend.
type TaskFunc func(ctx context.Context, args ...interface{}) (interface{}, error)

// Kind selects the executor backend.
type Kind int

const (
	// Goroutines runs tasks on a pool of goroutines sharing the scheduler's
	// memory. Suited to I/O-bound work; arguments and results are passed
	// without a serialization boundary.
	Goroutines Kind = iota

	// Processes runs each task in an isolated worker process. Suited to
	// CPU-bound work that should not share the host's memory; the task name
	// and all arguments must survive gob encoding.
	Processes
)

func (k Kind) String() string {
	switch k {
	case Goroutines:
		return "goroutines"
	case Processes:
		return "processes"
	default:
		return "unknown"
	}
}

// Invocation is one submission: a task identity plus its call arguments.
//
// The goroutine backend calls Func directly. The process backend ignores Func
// and dispatches by Name through the configured Registry, because code cannot
// cross the process boundary.
type Invocation struct {
	Name string
	Func TaskFunc
	Args []interface{}
}

// Executor dispatches invocations onto a worker backend.
//
// The underlying pool is created lazily on the first submission and at most
// once per Executor. After Shutdown, submissions fail with ErrShutdown; the
// pool is never silently recreated.
type Executor interface {
	// Submit hands the invocation to the backend and returns a handle that
	// resolves to the task's value or captured error. It blocks only for
	// pool acceptance, never for task execution.
	Submit(ctx context.Context, inv Invocation) (*Handle, error)

	// SubmitBound is Submit resolving into a caller-provided handle, for
	// submissions whose handle was issued before dispatch.
	SubmitBound(ctx context.Context, inv Invocation, h *Handle) error

	// Shutdown stops accepting submissions and releases the backend pool.
	// With wait=true it blocks until all accepted work has resolved.
	// Idempotent: repeated calls are no-ops.
	Shutdown(wait bool) error

	// Kind reports the backend variant.
	Kind() Kind

	// Size returns the worker-count bound.
	Size() int
}

// Config holds executor configuration.
type Config struct {
	// Kind selects the backend. Defaults to Goroutines.
	Kind Kind

	// Workers bounds backend parallelism. Zero or negative means
	// runtime.NumCPU().
	Workers int

	// QueueSize bounds the goroutine backend's task queue. Zero means
	// a queue of Workers*2.
	QueueSize int

	// TaskTimeout is accepted for forward compatibility but NOT enforced:
	// no per-task execution limit is applied. Callers must not rely on it.
	TaskTimeout time.Duration

	// Registry is required for the Processes kind; the worker process looks
	// task functions up here by name.
	Registry *Registry

	// Logger receives executor lifecycle and task failure events.
	// Defaults to a no-op logger.
	Logger zerolog.Logger
}

func (cfg *Config) withDefaults() {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}
}

// New creates an executor for the configured backend kind.
func New(cfg Config) (Executor, error) {
	cfg.withDefaults()

	switch cfg.Kind {
	case Goroutines:
		return newGoroutineExecutor(cfg), nil
	case Processes:
		if cfg.Registry == nil {
			return nil, gterrors.NewValidationError("executor", "Registry", nil, "cannot be nil for the process backend").
				WithHint("build a Registry and register every task by name")
		}
		return newProcessExecutor(cfg), nil
	default:
		return nil, gterrors.NewValidationError("executor", "Kind", cfg.Kind, "unknown backend kind")
	}
}
