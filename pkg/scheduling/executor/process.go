package executor

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	gterrors "github.com/vnykmshr/gotick/pkg/common/errors"
)

// processJob is the submission payload crossing the process boundary.
type processJob struct {
	Name string
	Args []interface{}
}

// processResult is the worker's reply.
type processResult struct {
	Value interface{}
	Err   string
	IsErr bool
}

func init() {
	// Concrete types carried inside interface values must be known to gob on
	// both sides of the boundary. Callers register their own types with
	// gob.Register; the common scalars are covered here.
	gob.Register(int(0))
	gob.Register(int32(0))
	gob.Register(int64(0))
	gob.Register(uint64(0))
	gob.Register(float32(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register("")
	gob.Register([]byte(nil))
	gob.Register([]interface{}(nil))
	gob.Register(map[string]interface{}(nil))
	gob.Register(time.Time{})
	gob.Register(time.Duration(0))
}

// encodeJob serializes the payload, proving at submit time that it can cross
// the process boundary.
func encodeJob(job processJob) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(job); err != nil {
		return nil, fmt.Errorf("executor: cannot submit %q: %w: %v", job.Name, gterrors.ErrNotSerializable, err)
	}
	return buf.Bytes(), nil
}

// processExecutor runs each task in an isolated worker process: the host
// binary re-executed in worker mode. Parallelism is bounded by a weighted
// semaphore sized to the worker count.
type processExecutor struct {
	cfg Config

	mu         sync.Mutex
	started    bool
	isShutdown bool

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup // accepted, not yet resolved submissions

	shutdownOnce sync.Once
}

func newProcessExecutor(cfg Config) *processExecutor {
	return &processExecutor{cfg: cfg}
}

func (p *processExecutor) Kind() Kind { return Processes }
func (p *processExecutor) Size() int  { return p.cfg.Workers }

func (p *processExecutor) Submit(ctx context.Context, inv Invocation) (*Handle, error) {
	h := NewHandle()
	if err := p.SubmitBound(ctx, inv, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (p *processExecutor) SubmitBound(ctx context.Context, inv Invocation, h *Handle) error {
	if h == nil {
		return fmt.Errorf("executor: handle cannot be nil")
	}
	if _, ok := p.cfg.Registry.Lookup(inv.Name); !ok {
		return fmt.Errorf("executor: task %q is not registered; the worker process cannot resolve it", inv.Name)
	}

	// Serializability is a submit-time contract, not a worker-time surprise.
	payload, err := encodeJob(processJob{Name: inv.Name, Args: inv.Args})
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.isShutdown {
		p.mu.Unlock()
		return fmt.Errorf("executor: cannot submit %q: %w", inv.Name, gterrors.ErrShutdown)
	}
	if !p.started {
		p.startLocked()
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go p.runChild(inv.Name, payload, h)
	return nil
}

// startLocked creates the pool state. Caller holds p.mu.
func (p *processExecutor) startLocked() {
	p.sem = semaphore.NewWeighted(int64(p.cfg.Workers))
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.started = true

	p.cfg.Logger.Debug().
		Int("workers", p.cfg.Workers).
		Msg("process executor started")
}

// runChild waits for a worker slot, spawns the worker process, feeds it the
// payload and resolves the handle from its reply.
func (p *processExecutor) runChild(name string, payload []byte, h *Handle) {
	defer p.wg.Done()

	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		h.Complete(nil, fmt.Errorf("executor: %q dropped: %w", name, gterrors.ErrShutdown))
		return
	}
	defer p.sem.Release(1)

	start := time.Now()
	value, err := p.spawn(payload)
	if err != nil {
		p.cfg.Logger.Error().
			Err(err).
			Str("task", name).
			Dur("duration", time.Since(start)).
			Msg("worker process task failed")
	}
	h.Complete(value, err)
}

// spawn re-executes the host binary in worker mode and exchanges one
// job/result pair over its standard streams.
func (p *processExecutor) spawn(payload []byte) (interface{}, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, gterrors.NewOperationError("executor", "spawn", err)
	}

	cmd := exec.Command(exe)
	cmd.Env = append(os.Environ(), workerEnvVar+"=1")
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stderr = os.Stderr

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, gterrors.NewOperationError("executor", "spawn", err).
			WithContext("worker process exited abnormally")
	}

	var res processResult
	if err := gob.NewDecoder(&out).Decode(&res); err != nil {
		return nil, gterrors.NewOperationError("executor", "spawn", err).
			WithContext("cannot decode worker result")
	}
	if res.IsErr {
		return res.Value, errors.New(res.Err)
	}
	return res.Value, nil
}

func (p *processExecutor) Shutdown(wait bool) error {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		started := p.started
		p.mu.Unlock()

		if !started {
			return
		}

		if wait {
			p.wg.Wait()
			p.cancel()
		} else {
			// Children waiting for a worker slot resolve with ErrShutdown;
			// already-running processes finish on their own.
			p.cancel()
		}

		p.cfg.Logger.Debug().Bool("wait", wait).Msg("process executor shut down")
	})

	return nil
}
