// Package foundation holds the single-resolution Promise/Future pair used to
// hand asynchronous menu operation outcomes back to callers, and the Result
// value a Future resolves to.
package foundation

import "fmt"

// Result is the settled outcome of an asynchronous operation: a value or an
// error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failure. A nil err is replaced so the Result stays a failure.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = fmt.Errorf("foundation: Err called with nil error")
	}
	return Result[T]{err: err}
}

// IsOk reports whether the operation succeeded.
func (r Result[T]) IsOk() bool { return r.err == nil }

// IsErr reports whether the operation failed.
func (r Result[T]) IsErr() bool { return r.err != nil }

// Unwrap returns the value and panics on a failed Result.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic(fmt.Sprintf("foundation: Unwrap on failed result: %v", r.err))
	}
	return r.value
}

// UnwrapErr returns the failure and panics on a successful Result.
func (r Result[T]) UnwrapErr() error {
	if r.err == nil {
		panic("foundation: UnwrapErr on successful result")
	}
	return r.err
}

// ToTuple returns the Result in (value, error) form.
func (r Result[T]) ToTuple() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// FromTuple builds a Result from a (value, error) call.
func FromTuple[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}
