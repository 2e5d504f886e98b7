package executor

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"strings"
	"testing"

	"github.com/vnykmshr/gotick/internal/testutil"
	gterrors "github.com/vnykmshr/gotick/pkg/common/errors"
)

func newProcessTestExecutor(t *testing.T) Executor {
	t.Helper()
	exec, err := New(Config{Kind: Processes, Workers: 2, Registry: testRegistry})
	testutil.AssertNoError(t, err)
	return exec
}

func TestProcess_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns worker processes")
	}

	exec := newProcessTestExecutor(t)
	defer exec.Shutdown(true)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	h, err := exec.Submit(ctx, Invocation{Name: "double", Args: []interface{}{21}})
	testutil.AssertNoError(t, err)

	value, err := h.Result(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, value.(int), 42)
}

func TestProcess_WorkerError(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns worker processes")
	}

	exec := newProcessTestExecutor(t)
	defer exec.Shutdown(true)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	h, err := exec.Submit(ctx, Invocation{Name: "fail"})
	testutil.AssertNoError(t, err)

	_, err = h.Result(ctx)
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, strings.Contains(err.Error(), "worker failure"), true)
}

func TestProcess_NotSerializable(t *testing.T) {
	exec := newProcessTestExecutor(t)
	defer exec.Shutdown(true)

	// A channel cannot cross the process boundary; the submission must fail
	// up front, before any worker is spawned.
	_, err := exec.Submit(context.Background(), Invocation{
		Name: "double",
		Args: []interface{}{make(chan int)},
	})
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, errors.Is(err, gterrors.ErrNotSerializable), true)
	testutil.AssertEqual(t, gterrors.IsSubmission(err), true)
}

func TestProcess_UnregisteredTask(t *testing.T) {
	exec := newProcessTestExecutor(t)
	defer exec.Shutdown(true)

	_, err := exec.Submit(context.Background(), Invocation{Name: "unknown"})
	testutil.AssertError(t, err)
}

func TestProcess_SubmitAfterShutdown(t *testing.T) {
	exec := newProcessTestExecutor(t)
	testutil.AssertNoError(t, exec.Shutdown(true))

	_, err := exec.Submit(context.Background(), Invocation{Name: "double", Args: []interface{}{1}})
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, errors.Is(err, gterrors.ErrShutdown), true)
}

// roundTrip feeds one job through the worker-side loop without spawning a
// process.
func roundTrip(t *testing.T, job processJob) processResult {
	t.Helper()

	var in bytes.Buffer
	testutil.AssertNoError(t, gob.NewEncoder(&in).Encode(job))

	var out bytes.Buffer
	testutil.AssertNoError(t, serveJob(testRegistry, &in, &out))

	var res processResult
	testutil.AssertNoError(t, gob.NewDecoder(&out).Decode(&res))
	return res
}

func TestServeJob_Success(t *testing.T) {
	res := roundTrip(t, processJob{Name: "double", Args: []interface{}{7}})

	testutil.AssertEqual(t, res.IsErr, false)
	testutil.AssertEqual(t, res.Value.(int), 14)
}

func TestServeJob_TaskError(t *testing.T) {
	res := roundTrip(t, processJob{Name: "fail"})

	testutil.AssertEqual(t, res.IsErr, true)
	testutil.AssertEqual(t, res.Err, "worker failure")
}

func TestServeJob_PanicConvertedToError(t *testing.T) {
	res := roundTrip(t, processJob{Name: "panic"})

	testutil.AssertEqual(t, res.IsErr, true)
	testutil.AssertEqual(t, strings.Contains(res.Err, "task panicked"), true)
}

func TestServeJob_UnknownTask(t *testing.T) {
	res := roundTrip(t, processJob{Name: "missing"})

	testutil.AssertEqual(t, res.IsErr, true)
	testutil.AssertEqual(t, strings.Contains(res.Err, "not registered"), true)
}

func TestEncodeJob_RejectsFunctions(t *testing.T) {
	_, err := encodeJob(processJob{Name: "double", Args: []interface{}{func() {}}})
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, errors.Is(err, gterrors.ErrNotSerializable), true)
}
