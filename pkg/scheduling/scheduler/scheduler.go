package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	gterrors "github.com/vnykmshr/gotick/pkg/common/errors"
	"github.com/vnykmshr/gotick/pkg/metrics"
	"github.com/vnykmshr/gotick/pkg/scheduling/executor"
	"github.com/vnykmshr/gotick/pkg/scheduling/schedule"
)

// maxWake caps the sleep between ticks so newly registered entries and
// queued instant tasks are noticed within one second at worst.
const maxWake = time.Second

// state models the scheduler lifecycle. Stopped is terminal: a stopped
// scheduler is never restarted, create a new one instead.
type state int

const (
	stateCreated state = iota
	stateRunning
	stateStopped
)

// EntryInfo is a read-only snapshot of a registered entry.
type EntryInfo struct {
	ID           string
	Task         string
	Schedule     schedule.Schedule
	LastDispatch time.Time
}

// Config holds scheduler configuration.
type Config struct {
	// Executor runs task bodies. If nil, the scheduler builds and owns one
	// from Backend/Workers/Registry and shuts it down on Shutdown. A
	// caller-provided executor stays under the caller's lifecycle.
	Executor executor.Executor

	// Backend selects the owned executor's kind when Executor is nil.
	Backend executor.Kind

	// Workers bounds the owned executor's parallelism. Zero means a
	// hardware-proportional default.
	Workers int

	// Registry is passed to the owned executor; required for the process
	// backend.
	Registry *executor.Registry

	// TaskTimeout is accepted for forward compatibility but NOT enforced;
	// see executor.Config.TaskTimeout.
	TaskTimeout time.Duration

	// InstantQueueSize bounds the instant-submission queue (default: 64).
	// SubmitInstant fails when the queue is full.
	InstantQueueSize int

	// MaxEntries bounds the registry size (default: 10000).
	MaxEntries int

	// Logger receives scheduling events. The zero value discards them.
	Logger zerolog.Logger

	// Name labels this scheduler in metrics (default: "default").
	Name string

	// Metrics configures Prometheus instrumentation. Disabled by default.
	Metrics metrics.Config
}

// instantItem is one queued instant submission, bound to the handle that was
// returned to the caller at enqueue time.
type instantItem struct {
	inv executor.Invocation
	h   *executor.Handle
}

// Scheduler owns the entry registry and the instant-submission queue, and
// runs the tick loop that dispatches due work to its executor.
type Scheduler struct {
	cfg     Config
	exec    executor.Executor
	ownExec bool
	log     zerolog.Logger

	mu      sync.RWMutex
	state   state
	entries map[string]*Entry
	tasks   map[string]*Task

	instantCh chan instantItem
	stopCh    chan struct{}

	shutdownOnce sync.Once

	metrics *metrics.Registry
}

// New creates a scheduler with default configuration: an owned goroutine
// executor sized to the hardware.
func New() *Scheduler {
	s, err := NewWithConfig(Config{})
	if err != nil {
		// Config{} is always valid; this is unreachable.
		panic(err)
	}
	return s
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) (*Scheduler, error) {
	if cfg.InstantQueueSize <= 0 {
		cfg.InstantQueueSize = 64
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	exec := cfg.Executor
	ownExec := false
	if exec == nil {
		var err error
		exec, err = executor.New(executor.Config{
			Kind:        cfg.Backend,
			Workers:     cfg.Workers,
			TaskTimeout: cfg.TaskTimeout,
			Registry:    cfg.Registry,
			Logger:      cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		ownExec = true
	}

	s := &Scheduler{
		cfg:       cfg,
		exec:      exec,
		ownExec:   ownExec,
		log:       cfg.Logger.With().Str("scheduler", cfg.Name).Logger(),
		entries:   make(map[string]*Entry),
		tasks:     make(map[string]*Task),
		instantCh: make(chan instantItem, cfg.InstantQueueSize),
		stopCh:    make(chan struct{}),
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Registry != nil {
			s.metrics = metrics.NewRegistry(cfg.Metrics.Registry)
		} else {
			s.metrics = metrics.DefaultRegistry
		}
	}

	return s, nil
}

// Executor returns the executor this scheduler dispatches to.
func (s *Scheduler) Executor() executor.Executor {
	return s.exec
}

// Register creates a task bound to this scheduler and adds it to the named
// task registry. A bound task can self-submit instant work via Task.Submit.
func (s *Scheduler) Register(name string, fn executor.TaskFunc) (*Task, error) {
	t, err := NewTask(name, fn)
	if err != nil {
		return nil, err
	}
	t.sched = s

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[name]; exists {
		return nil, fmt.Errorf("scheduler: task %q already registered", name)
	}
	s.tasks[name] = t

	s.log.Info().Str("task", name).Msg("task registered")
	return t, nil
}

// Lookup returns the bound task registered under name.
func (s *Scheduler) Lookup(name string) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[name]
	return t, ok
}

// RegisterScheduled adds an entry dispatching task on the given schedule
// with fixed args, and returns the entry's identifier. Registration is safe
// while the loop is running; the new entry is picked up within one tick.
func (s *Scheduler) RegisterScheduled(task *Task, sched schedule.Schedule, args ...interface{}) (string, error) {
	return s.RegisterScheduledWithOptions(task, sched, args)
}

// RegisterScheduledWithOptions is RegisterScheduled with entry options such
// as WithInFlightGuard.
func (s *Scheduler) RegisterScheduledWithOptions(task *Task, sched schedule.Schedule, args []interface{}, opts ...EntryOption) (string, error) {
	if task == nil {
		return "", gterrors.NewValidationError("scheduler", "task", nil, "cannot be nil")
	}
	if sched == nil {
		return "", gterrors.NewValidationError("scheduler", "schedule", nil, "cannot be nil")
	}

	e := newEntry(task, sched, args, opts...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateStopped {
		return "", fmt.Errorf("scheduler: cannot register %q: %w", task.Name(), gterrors.ErrShutdown)
	}
	if len(s.entries) >= s.cfg.MaxEntries {
		return "", fmt.Errorf("scheduler: cannot register %q: maximum number of entries (%d) reached", task.Name(), s.cfg.MaxEntries)
	}
	s.entries[e.id] = e

	if s.metrics != nil {
		s.metrics.EntriesRegistered.WithLabelValues(s.cfg.Name).Set(float64(len(s.entries)))
	}
	s.log.Info().
		Str("task", task.Name()).
		Str("entry", e.id).
		Str("schedule", fmt.Sprintf("%v", sched)).
		Msg("scheduled task added")

	return e.id, nil
}

// Unregister removes an entry from the registry. It returns false when the
// identifier is unknown.
func (s *Scheduler) Unregister(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; !exists {
		return false
	}
	delete(s.entries, id)

	if s.metrics != nil {
		s.metrics.EntriesRegistered.WithLabelValues(s.cfg.Name).Set(float64(len(s.entries)))
	}
	return true
}

// List returns a snapshot of all registered entries sorted by task name.
func (s *Scheduler) List() []EntryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]EntryInfo, 0, len(s.entries))
	for _, e := range s.entries {
		infos = append(infos, EntryInfo{
			ID:           e.id,
			Task:         e.task.Name(),
			Schedule:     e.schedule,
			LastDispatch: e.LastDispatch(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Task != infos[j].Task {
			return infos[i].Task < infos[j].Task
		}
		return infos[i].ID < infos[j].ID
	})

	return infos
}

// SubmitInstant queues a one-off submission of task and returns its result
// handle. The queued item is dispatched FIFO by the next tick, after due
// entries. It fails with errors.ErrNotRunning unless the loop is running,
// and with a capacity error when the instant queue is full.
func (s *Scheduler) SubmitInstant(task *Task, args ...interface{}) (*executor.Handle, error) {
	if task == nil {
		return nil, gterrors.NewValidationError("scheduler", "task", nil, "cannot be nil")
	}

	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()
	if st != stateRunning {
		return nil, fmt.Errorf("scheduler: cannot submit %q: %w", task.Name(), gterrors.ErrNotRunning)
	}

	h := executor.NewHandle()
	select {
	case s.instantCh <- instantItem{inv: task.invocation(args), h: h}:
	default:
		return nil, fmt.Errorf("scheduler: cannot submit %q: instant queue is full (%d)", task.Name(), cap(s.instantCh))
	}

	if s.metrics != nil {
		s.metrics.InstantSubmitted.WithLabelValues(s.cfg.Name).Inc()
		s.metrics.InstantQueueDepth.WithLabelValues(s.cfg.Name).Set(float64(len(s.instantCh)))
	}
	s.log.Debug().Str("task", task.Name()).Msg("instant task queued")

	return h, nil
}

// Tick runs one evaluation pass: dispatch due entries, drain the instant
// queue, and return how long the loop may sleep before the next pass. The
// returned duration is the minimum remaining time across entries, capped at
// one second.
func (s *Scheduler) Tick(now time.Time) time.Duration {
	start := time.Now()

	// Snapshot: registration during a tick must not corrupt iteration; new
	// entries are seen on the next pass.
	s.mu.RLock()
	snapshot := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		snapshot = append(snapshot, e)
	}
	s.mu.RUnlock()

	var nextWake time.Duration = -1
	for _, e := range snapshot {
		due, remaining := e.IsDue(now)
		if due {
			s.dispatch(e, now)
		}
		if nextWake < 0 || remaining < nextWake {
			nextWake = remaining
		}
	}

	s.drainInstant()

	if s.metrics != nil {
		s.metrics.SchedulerTicks.WithLabelValues(s.cfg.Name).Inc()
		s.metrics.TickDuration.WithLabelValues(s.cfg.Name).Observe(time.Since(start).Seconds())
	}

	if nextWake < 0 || nextWake > maxWake {
		return maxWake
	}
	return nextWake
}

// dispatch submits one due entry. Submission failures are logged and never
// abort the pass: one failing entry must not starve the rest.
func (s *Scheduler) dispatch(e *Entry, now time.Time) {
	if e.guarded && e.pending.Load() {
		s.log.Debug().Str("task", e.task.Name()).Str("entry", e.id).Msg("previous dispatch still in flight, skipping")
		return
	}

	h, err := s.exec.Submit(context.Background(), e.task.invocation(e.args))
	if err != nil {
		if s.metrics != nil {
			s.metrics.SubmitFailures.WithLabelValues(s.cfg.Name).Inc()
		}
		s.log.Error().Err(err).Str("task", e.task.Name()).Str("entry", e.id).Msg("failed to submit scheduled task")
		return
	}

	// Cadence is measured from dispatch, not completion. A task running
	// longer than its interval will be dispatched again concurrently unless
	// the entry carries an in-flight guard.
	e.markDispatched(now)
	if e.guarded {
		e.pending.Store(true)
		go func() {
			<-h.Done()
			e.pending.Store(false)
		}()
	}

	if s.metrics != nil {
		s.metrics.TasksDispatched.WithLabelValues(s.cfg.Name).Inc()
	}
	s.log.Info().Str("task", e.task.Name()).Str("entry", e.id).Msg("running scheduled task")
}

// drainInstant submits queued instant items FIFO without blocking. A failed
// submission resolves the item's handle and drops it; there is no requeue.
func (s *Scheduler) drainInstant() {
	for {
		select {
		case item := <-s.instantCh:
			if err := s.exec.SubmitBound(context.Background(), item.inv, item.h); err != nil {
				if s.metrics != nil {
					s.metrics.SubmitFailures.WithLabelValues(s.cfg.Name).Inc()
				}
				s.log.Error().Err(err).Str("task", item.inv.Name).Msg("failed to submit instant task")
				item.h.Complete(nil, err)
			}
		default:
			if s.metrics != nil {
				s.metrics.InstantQueueDepth.WithLabelValues(s.cfg.Name).Set(float64(len(s.instantCh)))
			}
			return
		}
	}
}

// begin transitions Created -> Running.
func (s *Scheduler) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateRunning:
		return fmt.Errorf("scheduler: already running")
	case stateStopped:
		return fmt.Errorf("scheduler: already stopped, create a new scheduler")
	}
	s.state = stateRunning
	return nil
}

// Run starts the loop on the caller's goroutine and blocks until the context
// is canceled, Shutdown is called, or a loop-fatal error occurs. Context
// cancellation is a graceful stop and returns nil; only loop-fatal errors
// are returned.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	return s.loop(ctx)
}

// Start runs the loop detached on its own goroutine and returns immediately.
// The goroutine never prevents process exit. Loop-fatal errors are logged.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	go func() {
		if err := s.loop(ctx); err != nil {
			s.log.Error().Err(err).Msg("scheduler loop terminated")
		}
	}()
	return nil
}

func (s *Scheduler) loop(ctx context.Context) error {
	s.log.Info().Msg("scheduler started")
	defer s.Shutdown()

	for {
		sleep, err := s.safeTick()
		if err != nil {
			// Loop-fatal: a failure in the scheduling logic itself, not in a
			// task body or a single submission. No restart.
			s.log.Error().Err(err).Msg("scheduler loop error")
			return err
		}

		timer := time.NewTimer(sleep)
		select {
		case <-s.stopCh:
			timer.Stop()
			s.log.Info().Msg("scheduler stopped")
			return nil
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("scheduler interrupted")
			return nil
		case <-timer.C:
		}
	}
}

// safeTick converts a panic inside tick evaluation into a loop-fatal error.
func (s *Scheduler) safeTick() (sleep time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()
	return s.Tick(time.Now()), nil
}

// Shutdown stops the loop and shuts down an owned executor, waiting for
// outstanding work to complete. It is idempotent and callable from any
// state. Queued instant items that were never dispatched resolve with
// errors.ErrShutdown.
func (s *Scheduler) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.state = stateStopped
		s.mu.Unlock()
		close(s.stopCh)

		// The queue dies with the scheduler, but its handles must resolve.
	drain:
		for {
			select {
			case item := <-s.instantCh:
				item.h.Complete(nil, gterrors.ErrShutdown)
			default:
				break drain
			}
		}

		if s.ownExec {
			if err := s.exec.Shutdown(true); err != nil {
				s.log.Error().Err(err).Msg("executor shutdown failed")
			}
		}

		s.log.Info().Msg("scheduler shutdown complete")
	})
}
