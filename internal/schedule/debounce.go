package schedule

import "time"

// Debouncer runs fn once after a quiet period. Every Trigger cancels the
// pending run and re-arms the timer, so a burst of triggers produces exactly
// one call, delay after the last trigger.
type Debouncer struct {
	s     *Scheduler
	delay time.Duration
	fn    func()
	task  *Task
}

// NewDebouncer creates a Debouncer on s.
func NewDebouncer(s *Scheduler, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{s: s, delay: delay, fn: fn}
}

// Trigger (re)arms the timer.
func (d *Debouncer) Trigger() {
	d.task.Stop()
	d.task = d.s.AfterFunc(d.delay, d.fn)
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	return d.task.Pending()
}

// Cancel drops the scheduled call, if any.
func (d *Debouncer) Cancel() {
	d.task.Stop()
	d.task = nil
}

// Fire runs the scheduled call immediately. It reports whether one was pending.
func (d *Debouncer) Fire() bool {
	if !d.task.Stop() {
		return false
	}
	d.task = nil
	d.fn()
	return true
}
