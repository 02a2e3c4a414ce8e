// Package signal provides typed, synchronous notification fan-out.
//
// A Signal replaces string-keyed event topics: every entity exposes one
// Signal per kind of notification and subscribers receive a typed payload.
// Signals are not safe for concurrent use; callers serialise access the same
// way they serialise mutations of the entity that owns the signal.
package signal

// Signal delivers values of type T to its subscribers in subscription order.
type Signal[T any] struct {
	nextID   int
	handlers []handler[T]
}

type handler[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it again.
func (s *Signal[T]) Subscribe(fn func(T)) (cancel func()) {
	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, handler[T]{id: id, fn: fn})
	return func() {
		for i, h := range s.handlers {
			if h.id == id {
				s.handlers = append(s.handlers[:i:i], s.handlers[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every subscriber with v. Subscribers added or removed while
// emitting take effect from the next Emit.
func (s *Signal[T]) Emit(v T) {
	if len(s.handlers) == 0 {
		return
	}
	snapshot := make([]handler[T], len(s.handlers))
	copy(snapshot, s.handlers)
	for _, h := range snapshot {
		h.fn(v)
	}
}

// Len returns the number of subscribers.
func (s *Signal[T]) Len() int {
	return len(s.handlers)
}
