package scheduler

import (
	"context"
	"fmt"

	gterrors "github.com/vnykmshr/gotick/pkg/common/errors"
	"github.com/vnykmshr/gotick/pkg/scheduling/executor"
)

// Task is a named callable unit of work. A task may carry a non-owning
// back-reference to the scheduler that registered it; the reference exists
// only so the task can submit itself as instant work, it does not keep the
// scheduler alive or imply ownership.
type Task struct {
	name string
	fn   executor.TaskFunc

	// set by Scheduler.Register; nil for unbound tasks
	sched *Scheduler
}

// NewTask creates an unbound task. Unbound tasks can be attached to entries
// via RegisterScheduled but cannot self-submit instant work.
func NewTask(name string, fn executor.TaskFunc) (*Task, error) {
	if name == "" {
		return nil, gterrors.NewValidationError("scheduler", "task name", name, "cannot be empty")
	}
	if fn == nil {
		return nil, gterrors.NewValidationError("scheduler", "task function", nil, "cannot be nil")
	}
	return &Task{name: name, fn: fn}, nil
}

// Name returns the task's immutable name.
func (t *Task) Name() string {
	return t.name
}

// Call invokes the task body directly on the caller's goroutine, bypassing
// any executor.
func (t *Task) Call(ctx context.Context, args ...interface{}) (interface{}, error) {
	return t.fn(ctx, args...)
}

// Submit submits the task as instant work through its owning scheduler and
// returns the result handle. It fails with errors.ErrUnboundTask when the
// task was never bound to a scheduler.
func (t *Task) Submit(args ...interface{}) (*executor.Handle, error) {
	if t.sched == nil {
		return nil, fmt.Errorf("task %q: %w", t.name, gterrors.ErrUnboundTask)
	}
	return t.sched.SubmitInstant(t, args...)
}

// invocation builds the executor payload for this task with the given args.
func (t *Task) invocation(args []interface{}) executor.Invocation {
	return executor.Invocation{
		Name: t.name,
		Func: t.fn,
		Args: args,
	}
}

func (t *Task) String() string {
	return fmt.Sprintf("<task %s>", t.name)
}
