/*
Package schedule defines dispatch policies for the gotick scheduler.

A Schedule is a pure function from "time of last dispatch" to "is a dispatch
due, and how long until the next one". The scheduler calls it on every tick
and never hands it mutable state, so new policy kinds (one-shot, jittered)
can be added without touching the scheduling loop.

The only built-in policy is Interval:

	s, err := schedule.NewInterval(5 * time.Second)
	if err != nil {
		log.Fatal(err)
	}

	due, remaining := s.IsDue(lastDispatch, time.Now())

First-run semantics: with a zero last-dispatch time the entry is due
immediately, and the reported remaining duration is the nominal cadence.

Calendar (cron-style) schedules are deliberately out of scope.
*/
package schedule
