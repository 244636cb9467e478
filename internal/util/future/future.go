package future

import (
	"sync"
	"time"
)

type result[T any] struct {
	v   T
	err error
}

// Future is a single-shot result that completes exactly once.
type Future[T any] struct {
	doneChannel chan struct{}
	res         result[T]
	once        sync.Once
}

// New runs fn in a goroutine and completes the Future when fn returns.
func New[T any](fn func() (T, error)) *Future[T] {
	f := Pending[T]()
	go func() {
		v, err := fn()
		f.Complete(v, err)
	}()
	return f
}

// Pending creates an incomplete Future whose result another goroutine will
// deliver through Complete. This is the shape the evaluation coordinator
// needs: the worker thread awaits while the debugger callback thread
// completes.
func Pending[T any]() *Future[T] {
	return &Future[T]{doneChannel: make(chan struct{})}
}

// FromValue creates an already-completed Future with a value.
func FromValue[T any](v T) *Future[T] {
	f := Pending[T]()
	f.Complete(v, nil)
	return f
}

// FromError creates an already-completed Future with an error.
func FromError[T any](err error) *Future[T] {
	f := Pending[T]()
	var zero T
	f.Complete(zero, err)
	return f
}

// Await blocks until completion and returns the result.
func (f *Future[T]) Await() (T, error) {
	<-f.doneChannel
	return f.res.v, f.res.err
}

// AwaitTimeout waits up to d for completion.
// Returns (value, err, ok). ok=false if timed out.
func (f *Future[T]) AwaitTimeout(d time.Duration) (T, error, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-f.doneChannel:
		return f.res.v, f.res.err, true
	case <-timer.C:
		var zero T
		return zero, nil, false
	}
}

// Done returns a channel closed when the Future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.doneChannel }

// Complete sets the result exactly once and closes the done channel.
// Later calls are no-ops.
func (f *Future[T]) Complete(v T, err error) {
	f.once.Do(func() {
		f.res = result[T]{v: v, err: err}
		close(f.doneChannel)
	})
}
