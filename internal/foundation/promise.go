package foundation

import (
	"context"
	"sync"
)

// Promise is the write side of a Future. It can be resolved exactly once;
// later calls to Resolve are ignored.
type Promise[T any] struct {
	once   sync.Once
	done   chan struct{}
	result Result[T]
}

// NewPromise creates an unresolved Promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolve settles the promise with r. It reports whether this call won;
// false means the promise had already been resolved.
func (p *Promise[T]) Resolve(r Result[T]) bool {
	resolved := false
	p.once.Do(func() {
		p.result = r
		resolved = true
		close(p.done)
	})
	return resolved
}

// Succeed resolves the promise with a value.
func (p *Promise[T]) Succeed(value T) bool {
	return p.Resolve(Ok(value))
}

// Fail resolves the promise with an error.
func (p *Promise[T]) Fail(err error) bool {
	return p.Resolve(Err[T](err))
}

// Future returns the read side of the promise.
func (p *Promise[T]) Future() *Future[T] {
	return &Future[T]{p: p}
}

// Future is the read side of a Promise.
type Future[T any] struct {
	p *Promise[T]
}

// Done is closed once the future has been resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.p.done
}

// Await blocks until the future resolves or ctx is done. When ctx finishes
// first the returned Result carries ctx.Err(); the operation itself keeps running.
func (f *Future[T]) Await(ctx context.Context) Result[T] {
	select {
	case <-f.p.done:
		return f.p.result
	case <-ctx.Done():
		return Err[T](ctx.Err())
	}
}

// Get blocks until the future resolves and returns the outcome as a tuple.
func (f *Future[T]) Get() (T, error) {
	<-f.p.done
	return f.p.result.ToTuple()
}
