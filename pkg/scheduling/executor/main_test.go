package executor

import (
	"context"
	"errors"
	"os"
	"testing"
)

// testRegistry is shared between the parent test process and the re-executed
// worker processes, so both sides resolve the same task names.
var testRegistry = NewRegistry()

func init() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(testRegistry.Register("double", func(_ context.Context, args ...interface{}) (interface{}, error) {
		return args[0].(int) * 2, nil
	}))
	must(testRegistry.Register("fail", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		return nil, errors.New("worker failure")
	}))
	must(testRegistry.Register("panic", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		panic("worker panic")
	}))
}

func TestMain(m *testing.M) {
	if IsWorker() {
		RunWorker(testRegistry)
		return
	}
	os.Exit(m.Run())
}
