package executor

import (
	"context"
	"sync"
)

// Handle is an asynchronous reference to the result of a single submission.
// It resolves exactly once, to either the task's return value or its captured
// error. Task errors are held here and never propagated into the scheduling
// loop.
type Handle struct {
	done chan struct{}
	once sync.Once

	value interface{}
	err   error
}

// NewHandle creates an unresolved handle. Callers normally receive handles
// from Submit; creating one directly is only needed when binding a
// submission that is dispatched later (see SubmitBound).
func NewHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Complete resolves the handle to a value or a captured error. Backends
// call it when a task finishes; the scheduler calls it to fail submissions
// dropped at shutdown. Subsequent calls are no-ops.
func (h *Handle) Complete(value interface{}, err error) {
	h.once.Do(func() {
		h.value = value
		h.err = err
		close(h.done)
	})
}

// Done returns a channel that is closed when the result is available.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result blocks until the task resolves or ctx is canceled. It returns the
// task's value and its captured error; if ctx ends first, it returns ctx's
// error and the task keeps running.
func (h *Handle) Result(ctx context.Context) (interface{}, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Poll reports the result without blocking. The boolean is false while the
// task is still pending.
func (h *Handle) Poll() (interface{}, error, bool) {
	select {
	case <-h.done:
		return h.value, h.err, true
	default:
		return nil, nil, false
	}
}
