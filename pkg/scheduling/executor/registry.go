package executor

import (
	"fmt"
	"sync"
)

// Registry maps task names to their functions. The process backend dispatches
// by name: the worker process re-executes the host binary and looks the
// function up in the same registry, so both sides must register the same set
// of functions before any submission.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]TaskFunc
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]TaskFunc)}
}

// Register adds a named task function. Registering the same name twice is an
// error; task names identify functions across the process boundary and must
// be stable.
func (r *Registry) Register(name string, fn TaskFunc) error {
	if name == "" {
		return fmt.Errorf("executor: task name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("executor: task function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fns[name]; exists {
		return fmt.Errorf("executor: task %q already registered", name)
	}
	r.fns[name] = fn
	return nil
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (TaskFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.fns[name]
	return fn, ok
}
