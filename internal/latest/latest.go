// Package latest provides a single-slot value cell for publishing continuously
// updated state to readers. A write replaces the current value and a read never
// blocks. Readers observe the last write that happened before the read, nothing more.
package latest

import "sync/atomic"

// Value holds exactly one value of type T.
// The zero Value is not usable; create one with New.
type Value[T any] struct {
	p atomic.Pointer[T]
}

// New returns a cell holding initial.
func New[T any](initial T) *Value[T] {
	v := &Value[T]{}
	v.Store(initial)
	return v
}

// Store replaces the current value.
func (v *Value[T]) Store(val T) {
	v.p.Store(&val)
}

// Load returns the most recently stored value.
func (v *Value[T]) Load() T {
	return *v.p.Load()
}

// Swap stores val and returns the previous value.
func (v *Value[T]) Swap(val T) T {
	return *v.p.Swap(&val)
}
