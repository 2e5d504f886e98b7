package executor

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

// workerEnvVar marks a process as a gotick worker. The process backend sets
// it when re-executing the host binary.
const workerEnvVar = "GOTICK_WORKER"

// IsWorker reports whether this process was spawned as an isolated worker.
// Host binaries using the process backend must check this at the top of main
// and hand control to RunWorker.
func IsWorker() bool {
	return os.Getenv(workerEnvVar) != ""
}

// RunWorker services one job: it reads the gob-encoded payload from stdin,
// runs the named task from reg and writes the gob-encoded result to stdout.
// It never returns to the caller's main flow; the process exits when done.
func RunWorker(reg *Registry) {
	if err := serveJob(reg, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "gotick worker:", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// serveJob is the testable core of RunWorker.
func serveJob(reg *Registry, in io.Reader, out io.Writer) error {
	var job processJob
	if err := gob.NewDecoder(in).Decode(&job); err != nil {
		return fmt.Errorf("decode job: %w", err)
	}

	var res processResult
	fn, ok := reg.Lookup(job.Name)
	if !ok {
		res = processResult{IsErr: true, Err: fmt.Sprintf("task %q is not registered in the worker", job.Name)}
	} else {
		value, err := callTask(fn, job.Args)
		if err != nil {
			res = processResult{IsErr: true, Err: err.Error()}
		} else {
			res = processResult{Value: value}
		}
	}

	// Encode to a buffer first: if the value itself is the unencodable part,
	// report that instead of leaving the parent with a truncated stream.
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(res); err != nil {
		buf.Reset()
		fallback := processResult{IsErr: true, Err: fmt.Sprintf("result of %q is not serializable: %v", job.Name, err)}
		if err := gob.NewEncoder(&buf).Encode(fallback); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	_, err := out.Write(buf.Bytes())
	return err
}

// callTask runs the task body, converting panics into errors.
func callTask(fn TaskFunc, args []interface{}) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
		}
	}()
	return fn(context.Background(), args...)
}
