package forkjoin

import (
	"github.com/go-foundations/forkjoin/frame"
)

// Future is the result slot of a forked child, owned by the parent's
// continuation. Get must only be called after the parent has Joined;
// reading it earlier is a contract violation.
type Future[T any] struct {
	f     *frame.Frame
	value T
	err   error
}

// Get returns the forked call's result. Valid only after Join(ctx) has
// returned for the frame this future was forked from.
func (fut *Future[T]) Get() T {
	return fut.value
}

// GetErr returns the forked call's result and error, for futures created
// via ForkErr.
func (fut *Future[T]) GetErr() (T, error) {
	return fut.value, fut.err
}
