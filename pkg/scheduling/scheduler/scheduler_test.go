package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/gotick/internal/testutil"
	gterrors "github.com/vnykmshr/gotick/pkg/common/errors"
	"github.com/vnykmshr/gotick/pkg/scheduling/schedule"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewWithConfig(Config{Workers: 2})
	testutil.AssertNoError(t, err)
	return s
}

func noopTask(t *testing.T, s *Scheduler, name string) *Task {
	t.Helper()
	task, err := s.Register(name, func(_ context.Context, _ ...interface{}) (interface{}, error) {
		return nil, nil
	})
	testutil.AssertNoError(t, err)
	return task
}

func TestRegister_DuplicateName(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	noopTask(t, s, "dup")
	_, err := s.Register("dup", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		return nil, nil
	})
	testutil.AssertError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	_, err := s.Register("", func(_ context.Context, _ ...interface{}) (interface{}, error) { return nil, nil })
	testutil.AssertEqual(t, gterrors.IsConfiguration(err), true)

	_, err = s.Register("nilfn", nil)
	testutil.AssertEqual(t, gterrors.IsConfiguration(err), true)
}

func TestLookup(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	task := noopTask(t, s, "findme")

	got, ok := s.Lookup("findme")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, got, task)

	_, ok = s.Lookup("missing")
	testutil.AssertEqual(t, ok, false)
}

func TestRegisterScheduled_EntryDueBeforeFirstDispatch(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	task := noopTask(t, s, "fresh")
	id, err := s.RegisterScheduled(task, schedule.MustInterval(2*time.Second))
	testutil.AssertNoError(t, err)

	s.mu.RLock()
	e := s.entries[id]
	s.mu.RUnlock()

	due, remaining := e.IsDue(time.Now())
	testutil.AssertEqual(t, due, true)
	testutil.AssertEqual(t, remaining, 2*time.Second)
}

func TestTick_SleepIsMinimumRemaining(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	task := noopTask(t, s, "timed")
	t0 := time.Now()

	idA, err := s.RegisterScheduled(task, schedule.MustInterval(2*time.Second))
	testutil.AssertNoError(t, err)
	idB, err := s.RegisterScheduled(task, schedule.MustInterval(5*time.Second))
	testutil.AssertNoError(t, err)

	s.mu.RLock()
	s.entries[idA].markDispatched(t0)
	s.entries[idB].markDispatched(t0)
	s.mu.RUnlock()

	// Remaining times are 0.4s and 3.4s: the tick returns the minimum.
	sleep := s.Tick(t0.Add(1600 * time.Millisecond))
	testutil.AssertEqual(t, sleep, 400*time.Millisecond)
}

func TestTick_SleepCappedAtOneSecond(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	task := noopTask(t, s, "slowpoke")
	t0 := time.Now()

	idA, err := s.RegisterScheduled(task, schedule.MustInterval(6*time.Second))
	testutil.AssertNoError(t, err)
	idB, err := s.RegisterScheduled(task, schedule.MustInterval(9*time.Second))
	testutil.AssertNoError(t, err)

	s.mu.RLock()
	s.entries[idA].markDispatched(t0)
	s.entries[idB].markDispatched(t0)
	s.mu.RUnlock()

	// Remaining times are 5s and 8s: the cap bounds the sleep.
	sleep := s.Tick(t0.Add(time.Second))
	testutil.AssertEqual(t, sleep, maxWake)
}

func TestTick_EmptyRegistrySleepsDefault(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	testutil.AssertEqual(t, s.Tick(time.Now()), maxWake)
}

func TestScheduler_DispatchesRepeatedly(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	var executed int32
	task, err := s.Register("repeat", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		atomic.AddInt32(&executed, 1)
		return nil, nil
	})
	testutil.AssertNoError(t, err)

	_, err = s.RegisterScheduled(task, schedule.MustInterval(30*time.Millisecond))
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, s.Start(context.Background()))
	testutil.WaitForInt32(t, &executed, 3, 2*time.Second)
}

func TestScheduler_FixedArgsPassedOnEveryDispatch(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	var got atomic.Value
	task, err := s.Register("args", func(_ context.Context, args ...interface{}) (interface{}, error) {
		got.Store(args[0].(string) + args[1].(string))
		return nil, nil
	})
	testutil.AssertNoError(t, err)

	_, err = s.RegisterScheduled(task, schedule.MustInterval(20*time.Millisecond), "he", "llo")
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, s.Start(context.Background()))
	testutil.Eventually(t, func() bool {
		v, _ := got.Load().(string)
		return v == "hello"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubmitInstant_RequiresRunning(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	task := noopTask(t, s, "early")
	_, err := s.SubmitInstant(task)
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, errors.Is(err, gterrors.ErrNotRunning), true)
}

func TestSubmitInstant_ResolvesValue(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	task, err := s.Register("answer", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		return 42, nil
	})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start(context.Background()))

	h, err := s.SubmitInstant(task)
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	value, err := h.Result(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, value.(int), 42)
}

func TestSubmitInstant_ErrorDoesNotStopScheduling(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	boom := errors.New("task blew up")
	failing, err := s.Register("failing", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		return nil, boom
	})
	testutil.AssertNoError(t, err)

	var executed int32
	healthy, err := s.Register("healthy", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		atomic.AddInt32(&executed, 1)
		return nil, nil
	})
	testutil.AssertNoError(t, err)

	_, err = s.RegisterScheduled(healthy, schedule.MustInterval(30*time.Millisecond))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start(context.Background()))

	h, err := s.SubmitInstant(failing)
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	_, err = h.Result(ctx)
	testutil.AssertEqual(t, errors.Is(err, boom), true)

	// The failure stays on the handle; scheduled entries keep dispatching.
	before := atomic.LoadInt32(&executed)
	testutil.WaitForInt32(t, &executed, before+2, 2*time.Second)
}

func TestSubmitInstant_FIFO(t *testing.T) {
	// Single worker: queued instants must run in submission order.
	s, err := NewWithConfig(Config{Workers: 1})
	testutil.AssertNoError(t, err)
	defer s.Shutdown()

	var order []int
	first, err := s.Register("first", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		order = append(order, 1)
		return nil, nil
	})
	testutil.AssertNoError(t, err)
	second, err := s.Register("second", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		order = append(order, 2)
		return nil, nil
	})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start(context.Background()))

	h1, err := s.SubmitInstant(first)
	testutil.AssertNoError(t, err)
	h2, err := s.SubmitInstant(second)
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	_, err = h1.Result(ctx)
	testutil.AssertNoError(t, err)
	_, err = h2.Result(ctx)
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(order), 2)
	testutil.AssertEqual(t, order[0], 1)
	testutil.AssertEqual(t, order[1], 2)
}

func TestTaskSubmit_Unbound(t *testing.T) {
	task, err := NewTask("loner", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		return nil, nil
	})
	testutil.AssertNoError(t, err)

	_, err = task.Submit()
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, errors.Is(err, gterrors.ErrUnboundTask), true)
}

func TestTaskSubmit_Bound(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	task, err := s.Register("self", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		return "selfie", nil
	})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start(context.Background()))

	h, err := task.Submit()
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	value, err := h.Result(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, value.(string), "selfie")
}

func TestScheduler_ShutdownIdempotent(t *testing.T) {
	s := newTestScheduler(t)
	s.Shutdown()
	s.Shutdown()
}

func TestScheduler_NoRestartAfterShutdown(t *testing.T) {
	s := newTestScheduler(t)
	s.Shutdown()

	err := s.Start(context.Background())
	testutil.AssertError(t, err)
	testutil.AssertError(t, s.Run(context.Background()))
}

func TestScheduler_DoubleStart(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	testutil.AssertNoError(t, s.Start(context.Background()))
	testutil.AssertError(t, s.Start(context.Background()))
}

func TestScheduler_ContextCancelStopsLoop(t *testing.T) {
	s := newTestScheduler(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		testutil.AssertNoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	// Graceful stop implies shutdown: instant submissions now fail.
	task := noopTask(t, s, "late")
	_, err := s.SubmitInstant(task)
	testutil.AssertEqual(t, errors.Is(err, gterrors.ErrNotRunning), true)
}

func TestScheduler_OverlappingDispatchWithoutGuard(t *testing.T) {
	s, err := NewWithConfig(Config{Workers: 4})
	testutil.AssertNoError(t, err)
	defer s.Shutdown()

	var running int32
	var overlapped int32
	task, err := s.Register("sluggish", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		if atomic.AddInt32(&running, 1) > 1 {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(150 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil, nil
	})
	testutil.AssertNoError(t, err)

	// Execution takes longer than the interval: dispatches overlap.
	_, err = s.RegisterScheduled(task, schedule.MustInterval(20*time.Millisecond))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start(context.Background()))

	testutil.WaitForInt32(t, &overlapped, 1, 2*time.Second)
}

func TestScheduler_InFlightGuardPreventsOverlap(t *testing.T) {
	s, err := NewWithConfig(Config{Workers: 4})
	testutil.AssertNoError(t, err)
	defer s.Shutdown()

	var running int32
	var overlapped int32
	var executed int32
	task, err := s.Register("guarded", func(_ context.Context, _ ...interface{}) (interface{}, error) {
		if atomic.AddInt32(&running, 1) > 1 {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(100 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		atomic.AddInt32(&executed, 1)
		return nil, nil
	})
	testutil.AssertNoError(t, err)

	_, err = s.RegisterScheduledWithOptions(task, schedule.MustInterval(20*time.Millisecond), nil, WithInFlightGuard())
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start(context.Background()))

	testutil.WaitForInt32(t, &executed, 2, 2*time.Second)
	testutil.AssertEqual(t, atomic.LoadInt32(&overlapped), int32(0))
}

func TestUnregister(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	task := noopTask(t, s, "transient")
	id, err := s.RegisterScheduled(task, schedule.MustInterval(time.Second))
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, len(s.List()), 1)
	testutil.AssertEqual(t, s.Unregister(id), true)
	testutil.AssertEqual(t, s.Unregister(id), false)
	testutil.AssertEqual(t, len(s.List()), 0)
}

func TestList_SortedSnapshot(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Shutdown()

	b := noopTask(t, s, "bravo")
	a := noopTask(t, s, "alpha")

	_, err := s.RegisterScheduled(b, schedule.MustInterval(time.Second))
	testutil.AssertNoError(t, err)
	_, err = s.RegisterScheduled(a, schedule.MustInterval(time.Second))
	testutil.AssertNoError(t, err)

	infos := s.List()
	testutil.AssertEqual(t, len(infos), 2)
	testutil.AssertEqual(t, infos[0].Task, "alpha")
	testutil.AssertEqual(t, infos[1].Task, "bravo")
}
