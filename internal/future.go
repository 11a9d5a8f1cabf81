package internal

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Result is what a Future delivers: a value or the error that prevented it.
type Result[T any] struct {
	Value T
	Err   error
}

// Future is the completion token carried by operations that produce a result
// on the ui goroutine (measure, hit testing, animation completion).
// It resolves exactly once.
type Future[T any] struct {
	ID uuid.UUID

	once sync.Once
	done chan struct{}
	res  Result[T]
}

func NewFuture[T any]() *Future[T] {
	return &Future[T]{
		ID:   uuid.New(),
		done: make(chan struct{}),
	}
}

// FailedFuture returns a future already resolved with err.
func FailedFuture[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.fail(err)
	return f
}

// resolve delivers the result. Later calls are ignored.
func (f *Future[T]) resolve(v T, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.res = Result[T]{Value: v, Err: err}
		close(f.done)
		resolved = true
	})
	return resolved
}

func (f *Future[T]) fail(err error) bool {
	var zero T
	return f.resolve(zero, err)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Resolved reports whether the future already holds a result.
func (f *Future[T]) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the result. Only meaningful after Done is closed.
func (f *Future[T]) Result() Result[T] {
	<-f.done
	return f.res
}

// Await blocks until the future resolves or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.res.Value, f.res.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
