// Package watch holds a value that is replaced wholesale and lets any number
// of subscribers wait for the next replacement without blocking each other.
package watch

import "sync"

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Value is a published value plus a change signal. The zero Value is not
// usable; construct it with New.
type Value[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	notify  chan struct{}
	closed  bool
}

func New[T any](initial T) *Value[T] {
	return &Value[T]{
		value:   initial,
		version: 1,
		notify:  make(chan struct{}),
	}
}

func (v *Value[T]) Current() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Publish replaces the value and wakes every subscriber. It reports false
// when the value was already closed.
func (v *Value[T]) Publish(value T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}

	v.value = value
	v.version++
	close(v.notify)
	v.notify = make(chan struct{})
	return true
}

// Close signals permanent shutdown to every subscriber. The last value stays
// readable through Current.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	close(v.notify)
}

func (v *Value[T]) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Subscribe returns a subscriber positioned at the current version: Changed
// fires on the next Publish or Close.
func (v *Value[T]) Subscribe() *Subscriber[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return &Subscriber[T]{value: v, seen: v.version}
}

// Subscriber tracks which version its owner has observed. It is meant to be
// used from a single goroutine.
type Subscriber[T any] struct {
	value *Value[T]
	seen  uint64
}

// Changed returns a channel that is closed once a version newer than the last
// one returned by Next exists, or the value was closed.
func (s *Subscriber[T]) Changed() <-chan struct{} {
	v := s.value
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || v.version != s.seen {
		return closedChan
	}
	return v.notify
}

// Next returns the newest value and marks it observed. ok is false once the
// value was closed.
func (s *Subscriber[T]) Next() (value T, ok bool) {
	v := s.value
	v.mu.Lock()
	defer v.mu.Unlock()

	s.seen = v.version
	if v.closed {
		return v.value, false
	}
	return v.value, true
}
