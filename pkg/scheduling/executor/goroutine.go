package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	gterrors "github.com/vnykmshr/gotick/pkg/common/errors"
)

// boundInvocation pairs a queued invocation with the handle it resolves.
type boundInvocation struct {
	inv Invocation
	fn  TaskFunc
	h   *Handle
}

// goroutineExecutor runs tasks on a fixed pool of goroutines sharing the
// host's memory.
type goroutineExecutor struct {
	cfg Config

	mu         sync.Mutex
	started    bool
	isShutdown bool

	taskCh chan boundInvocation
	stopCh chan struct{}

	workerWg sync.WaitGroup // worker goroutines
	inFlight sync.WaitGroup // accepted, not yet resolved submissions

	shutdownOnce sync.Once
}

func newGoroutineExecutor(cfg Config) *goroutineExecutor {
	return &goroutineExecutor{cfg: cfg}
}

func (p *goroutineExecutor) Kind() Kind { return Goroutines }
func (p *goroutineExecutor) Size() int  { return p.cfg.Workers }

func (p *goroutineExecutor) Submit(ctx context.Context, inv Invocation) (*Handle, error) {
	h := NewHandle()
	if err := p.SubmitBound(ctx, inv, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (p *goroutineExecutor) SubmitBound(ctx context.Context, inv Invocation, h *Handle) error {
	if h == nil {
		return fmt.Errorf("executor: handle cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fn := inv.Func
	if fn == nil && p.cfg.Registry != nil {
		fn, _ = p.cfg.Registry.Lookup(inv.Name)
	}
	if fn == nil {
		return fmt.Errorf("executor: invocation %q has no function", inv.Name)
	}

	p.mu.Lock()
	if p.isShutdown {
		p.mu.Unlock()
		return fmt.Errorf("executor: cannot submit %q: %w", inv.Name, gterrors.ErrShutdown)
	}
	if !p.started {
		p.startLocked()
	}
	p.inFlight.Add(1)
	p.mu.Unlock()

	// The context applies to queue acceptance only. Tasks run with a
	// background context: cancellation of submitted work is out of scope.
	select {
	case p.taskCh <- boundInvocation{inv: inv, fn: fn, h: h}:
		return nil
	case <-p.stopCh:
		p.inFlight.Done()
		return fmt.Errorf("executor: cannot submit %q: %w", inv.Name, gterrors.ErrShutdown)
	case <-ctx.Done():
		p.inFlight.Done()
		return fmt.Errorf("executor: cannot submit %q: %w", inv.Name, ctx.Err())
	}
}

// startLocked creates the pool. Caller holds p.mu. The pool is created at
// most once; a shut-down executor never restarts it.
func (p *goroutineExecutor) startLocked() {
	p.taskCh = make(chan boundInvocation, p.cfg.QueueSize)
	p.stopCh = make(chan struct{})

	for i := 0; i < p.cfg.Workers; i++ {
		p.workerWg.Add(1)
		go p.worker(i)
	}
	p.started = true

	p.cfg.Logger.Debug().
		Int("workers", p.cfg.Workers).
		Int("queue_size", p.cfg.QueueSize).
		Msg("goroutine executor started")
}

func (p *goroutineExecutor) worker(id int) {
	defer p.workerWg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case b := <-p.taskCh:
			p.execute(id, b)
		}
	}
}

func (p *goroutineExecutor) execute(workerID int, b boundInvocation) {
	defer p.inFlight.Done()

	start := time.Now()
	var (
		value interface{}
		err   error
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
		}

		if err != nil {
			p.cfg.Logger.Error().
				Err(err).
				Str("task", b.inv.Name).
				Int("worker", workerID).
				Dur("duration", time.Since(start)).
				Msg("task failed")
		}

		b.h.Complete(value, err)
	}()

	value, err = b.fn(context.Background(), b.inv.Args...)
}

func (p *goroutineExecutor) Shutdown(wait bool) error {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		started := p.started
		p.mu.Unlock()

		if !started {
			return
		}

		if wait {
			// Workers keep draining the queue; inFlight reaches zero only
			// once every accepted submission has resolved.
			p.inFlight.Wait()
			close(p.stopCh)
			p.workerWg.Wait()
		} else {
			close(p.stopCh)
			go func() {
				p.workerWg.Wait()
				// Resolve abandoned queue items so their handles don't hang.
				for {
					select {
					case b := <-p.taskCh:
						b.h.Complete(nil, gterrors.ErrShutdown)
						p.inFlight.Done()
					default:
						return
					}
				}
			}()
		}

		p.cfg.Logger.Debug().Bool("wait", wait).Msg("goroutine executor shut down")
	})

	return nil
}
