package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSchedulerRunDue(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock)

	var order []string
	s.AfterFunc(20*time.Millisecond, func() { order = append(order, "b") })
	s.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })

	assert.Equal(t, 0, s.RunDue())
	assert.Equal(t, 2, s.Pending())

	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, s.RunDue())
	assert.Equal(t, []string{"a"}, order)

	clock.Advance(time.Second)
	assert.Equal(t, 1, s.RunDue())
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 0, s.Pending())
}

func TestSchedulerStop(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock)

	ran := false
	task := s.AfterFunc(time.Millisecond, func() { ran = true })
	assert.True(t, task.Pending())
	assert.True(t, task.Stop())
	assert.False(t, task.Stop())

	clock.Advance(time.Second)
	assert.Equal(t, 0, s.RunDue())
	assert.False(t, ran)
}

func TestSchedulerNestedScheduling(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock)

	count := 0
	s.AfterFunc(0, func() {
		count++
		s.AfterFunc(0, func() { count++ })
	})

	assert.Equal(t, 2, s.RunDue())
	assert.Equal(t, 2, count)
}

func TestSchedulerFlushIgnoresDeadline(t *testing.T) {
	s := New(NewManualClock(epoch))
	ran := 0
	s.AfterFunc(time.Hour, func() { ran++ })

	due, ok := s.NextDue()
	assert.True(t, ok)
	assert.Equal(t, epoch.Add(time.Hour), due)

	assert.Equal(t, 1, s.Flush())
	assert.Equal(t, 1, ran)

	_, ok = s.NextDue()
	assert.False(t, ok)
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	clock := NewManualClock(epoch)
	s := New(clock)
	calls := 0
	d := NewDebouncer(s, 10*time.Millisecond, func() { calls++ })

	for i := 0; i < 5; i++ {
		d.Trigger()
		clock.Advance(5 * time.Millisecond)
		s.RunDue()
	}
	assert.Equal(t, 0, calls)
	assert.True(t, d.Pending())

	clock.Advance(5 * time.Millisecond)
	s.RunDue()
	assert.Equal(t, 1, calls)
	assert.False(t, d.Pending())
}

func TestDebouncerFireAndCancel(t *testing.T) {
	s := New(NewManualClock(epoch))
	calls := 0
	d := NewDebouncer(s, 10*time.Millisecond, func() { calls++ })

	assert.False(t, d.Fire())

	d.Trigger()
	assert.True(t, d.Fire())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Flush())

	d.Trigger()
	d.Cancel()
	assert.Equal(t, 0, s.Flush())
	assert.Equal(t, 1, calls)
}
