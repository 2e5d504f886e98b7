package schedule

import (
	"fmt"
	"time"

	gterrors "github.com/vnykmshr/gotick/pkg/common/errors"
)

// Schedule decides whether an entry is due for dispatch.
//
// IsDue reports whether a dispatch is due at now given the time of the last
// dispatch, and how long until the next one. A zero last value means the
// entry has never been dispatched: the entry is due immediately and the
// returned duration is the nominal cadence, used only to bound the
// scheduler's next wake-up.
//
// Implementations must be pure: no side effects, no mutation of entry state.
// Updating the last-dispatch time is the scheduler's responsibility.
type Schedule interface {
	IsDue(last, now time.Time) (due bool, remaining time.Duration)
}

// Interval dispatches at a fixed cadence measured from the previous dispatch.
type Interval struct {
	interval time.Duration
}

// NewInterval creates a fixed-interval schedule. The interval must be positive.
func NewInterval(interval time.Duration) (*Interval, error) {
	if interval <= 0 {
		return nil, gterrors.NewValidationError("schedule", "interval", interval, "must be positive").
			WithHint("use a duration greater than 0")
	}
	return &Interval{interval: interval}, nil
}

// MustInterval is like NewInterval but panics on an invalid interval.
// Intended for package-level declarations with constant durations.
func MustInterval(interval time.Duration) *Interval {
	s, err := NewInterval(interval)
	if err != nil {
		panic(err)
	}
	return s
}

// IsDue implements Schedule.
func (s *Interval) IsDue(last, now time.Time) (bool, time.Duration) {
	if last.IsZero() {
		return true, s.interval
	}

	next := last.Add(s.interval)
	if !now.Before(next) {
		return true, s.interval
	}
	return false, next.Sub(now)
}

// Interval returns the configured cadence.
func (s *Interval) Interval() time.Duration {
	return s.interval
}

func (s *Interval) String() string {
	return fmt.Sprintf("every %v", s.interval)
}
