package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vnykmshr/gotick/pkg/scheduling/schedule"
)

// Entry binds a task to a schedule policy plus fixed call arguments. It is
// the unit stored in the scheduler registry; its identifier is generated at
// creation and stable for the entry's lifetime.
type Entry struct {
	id       string
	task     *Task
	schedule schedule.Schedule
	args     []interface{}

	// guarded skips a dispatch while the previous one has not resolved.
	// Extension point, off by default: the baseline contract allows
	// overlapping dispatches when execution time exceeds the interval.
	guarded bool
	pending atomic.Bool

	mu           sync.Mutex
	lastDispatch time.Time // zero means never dispatched
}

// EntryOption customizes entry registration.
type EntryOption func(*Entry)

// WithInFlightGuard makes the entry skip dispatch while a previous dispatch
// has not resolved yet. This trades the at-least-once-per-interval guarantee
// for per-entry exclusivity.
func WithInFlightGuard() EntryOption {
	return func(e *Entry) { e.guarded = true }
}

func newEntry(task *Task, sched schedule.Schedule, args []interface{}, opts ...EntryOption) *Entry {
	e := &Entry{
		id:       uuid.NewString(),
		task:     task,
		schedule: sched,
		args:     args,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the entry's opaque identifier.
func (e *Entry) ID() string {
	return e.id
}

// Task returns the entry's task.
func (e *Entry) Task() *Task {
	return e.task
}

// Schedule returns the entry's dispatch policy.
func (e *Entry) Schedule() schedule.Schedule {
	return e.schedule
}

// IsDue evaluates the schedule policy against the entry's last dispatch
// time. It never mutates entry state; recording a dispatch is the tick
// loop's job via markDispatched.
func (e *Entry) IsDue(now time.Time) (bool, time.Duration) {
	e.mu.Lock()
	last := e.lastDispatch
	e.mu.Unlock()

	return e.schedule.IsDue(last, now)
}

// LastDispatch returns the time of the most recent dispatch, zero if the
// entry has never been dispatched.
func (e *Entry) LastDispatch() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDispatch
}

// markDispatched records a dispatch. The timestamp only moves forward.
func (e *Entry) markDispatched(now time.Time) {
	e.mu.Lock()
	if now.After(e.lastDispatch) {
		e.lastDispatch = now
	}
	e.mu.Unlock()
}
