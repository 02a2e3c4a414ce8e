// Package schedule provides deferred tasks with cancel-and-reschedule
// semantics on an injectable clock.
//
// A Scheduler never runs callbacks on its own goroutine. Due tasks run when
// the owner calls RunDue (or Flush), so deferred work is always serialised
// with the mutations that scheduled it.
package schedule

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Now returns the wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to. Used in tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Task is a callback scheduled to run at a deadline.
type Task struct {
	due  time.Time
	seq  uint64
	fn   func()
	done bool
}

// Stop cancels the task. It reports whether the task was still pending.
func (t *Task) Stop() bool {
	if t == nil || t.done {
		return false
	}
	t.done = true
	return true
}

// Pending reports whether the task has neither run nor been stopped.
func (t *Task) Pending() bool {
	return t != nil && !t.done
}

// Scheduler holds pending tasks ordered by deadline.
type Scheduler struct {
	clock Clock
	seq   uint64
	tasks []*Task
}

// New creates a Scheduler on the given clock. A nil clock means SystemClock.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// AfterFunc schedules fn to run once d has elapsed.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) *Task {
	s.seq++
	t := &Task{due: s.clock.Now().Add(d), seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// RunDue runs every task whose deadline has passed, earliest first, and
// returns how many ran. Tasks scheduled by a running task are considered too.
func (s *Scheduler) RunDue() int {
	return s.run(func(t *Task) bool { return !t.due.After(s.clock.Now()) })
}

// Flush runs every pending task regardless of its deadline.
func (s *Scheduler) Flush() int {
	return s.run(func(*Task) bool { return true })
}

// Pending returns the number of tasks waiting to run.
func (s *Scheduler) Pending() int {
	s.compact()
	return len(s.tasks)
}

// NextDue returns the deadline of the earliest pending task.
func (s *Scheduler) NextDue() (time.Time, bool) {
	if t := s.earliest(func(*Task) bool { return true }); t != nil {
		return t.due, true
	}
	return time.Time{}, false
}

func (s *Scheduler) run(ready func(*Task) bool) int {
	ran := 0
	for {
		t := s.earliest(ready)
		if t == nil {
			return ran
		}
		t.done = true
		t.fn()
		ran++
	}
}

func (s *Scheduler) earliest(ready func(*Task) bool) *Task {
	s.compact()
	var best *Task
	for _, t := range s.tasks {
		if !ready(t) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (s *Scheduler) compact() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.done {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}
