// Package task bridges single-completion asynchronous operations into
// blocking calls with a deadline. Await must only be called from a worker
// goroutine; it blocks while the operation's network round-trip runs.
package task

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout is the bound applied to every identity backend call.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when the operation did not complete before the timeout.
	ErrTimeout = errors.New("task: timed out")
	// ErrInterrupted is returned when the waiting context is cancelled. It is
	// not retried; callers abort the work that was waiting.
	ErrInterrupted = errors.New("task: wait interrupted")
)

// Operation starts an asynchronous operation and arranges for complete to be
// called once with its result or failure. complete may be called from any
// goroutine, including synchronously before Operation returns.
type Operation[T any] func(complete func(T, error))

type outcome[T any] struct {
	value T
	err   error
}

// Await starts op and blocks until it completes, timeout elapses, or ctx is
// done. A completion that arrives after Await has returned is dropped; later
// calls to complete never block the producer.
func Await[T any](ctx context.Context, timeout time.Duration, op Operation[T]) (T, error) {
	var zero T
	if op == nil {
		return zero, errors.New("task: nil operation")
	}
	done := make(chan outcome[T], 1)
	op(func(v T, err error) {
		select {
		case done <- outcome[T]{value: v, err: err}:
		default:
			// already completed once
		}
	})

	// A completed result takes precedence over an expired timer or a done ctx.
	select {
	case out := <-done:
		return out.result()
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.result()
	case <-timer.C:
		if out, ok := completed(done); ok {
			return out.result()
		}
		return zero, ErrTimeout
	case <-ctx.Done():
		if out, ok := completed(done); ok {
			return out.result()
		}
		return zero, fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
	}
}

func (o outcome[T]) result() (T, error) {
	if o.err != nil {
		var zero T
		return zero, o.err
	}
	return o.value, nil
}

func completed[T any](done <-chan outcome[T]) (outcome[T], bool) {
	select {
	case out := <-done:
		return out, true
	default:
		return outcome[T]{}, false
	}
}

// Go returns an Operation that runs fn on its own goroutine and completes
// with its result.
func Go[T any](fn func() (T, error)) Operation[T] {
	return func(complete func(T, error)) {
		go func() {
			complete(fn())
		}()
	}
}

// Done returns an Operation that completes immediately with v and err.
func Done[T any](v T, err error) Operation[T] {
	return func(complete func(T, error)) {
		complete(v, err)
	}
}
