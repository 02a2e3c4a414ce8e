package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalDeliversInOrder(t *testing.T) {
	var s Signal[int]
	var got []string

	s.Subscribe(func(v int) { got = append(got, "a") })
	cancel := s.Subscribe(func(v int) { got = append(got, "b") })
	s.Subscribe(func(v int) { got = append(got, "c") })

	s.Emit(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	cancel()
	got = nil
	s.Emit(2)
	assert.Equal(t, []string{"a", "c"}, got)
	assert.Equal(t, 2, s.Len())
}

func TestSignalSubscribeDuringEmit(t *testing.T) {
	var s Signal[string]
	calls := 0
	s.Subscribe(func(string) {
		calls++
		s.Subscribe(func(string) { calls += 10 })
	})

	s.Emit("x")
	assert.Equal(t, 1, calls)

	s.Emit("y")
	assert.Equal(t, 12, calls)
}

func TestSignalCancelTwice(t *testing.T) {
	var s Signal[struct{}]
	cancel := s.Subscribe(func(struct{}) {})
	cancel()
	cancel()
	assert.Equal(t, 0, s.Len())
}
