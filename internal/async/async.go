// Package async provides a single-assignment future with exactly one continuation slot.
//
// A [Promise] is the write side held by whoever performs the work; the matching
// [Future] is the read side handed to callers. A future resolves once. Resolving
// it again is reported with [ErrAlreadyResolved] and never re-runs the continuation.
//
// Continuations run synchronously on the goroutine that resolves the promise, or on
// the attaching goroutine when the future is already complete.
package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrAlreadyResolved      = errors.New("async: future already resolved")
	ErrContinuationAttached = errors.New("async: continuation already attached")
	ErrPanic                = errors.New("async: continuation panicked")
)

// Future is the read side of a pending computation.
type Future[T any] struct {
	mu       sync.Mutex
	done     bool
	attached bool
	value    T
	err      error
	cont     func(T, error)
}

// Promise is the write side of a [Future].
type Promise[T any] struct {
	f *Future[T]
}

// New returns a connected promise and future.
func New[T any]() (*Promise[T], *Future[T]) {
	f := &Future[T]{}
	return &Promise[T]{f: f}, f
}

// Resolved returns a future that already holds v.
func Resolved[T any](v T) *Future[T] {
	return &Future[T]{done: true, value: v}
}

// Failed returns a future that already holds err.
func Failed[T any](err error) *Future[T] {
	return &Future[T]{done: true, err: err}
}

// Go runs fn on a new goroutine and resolves the returned future with its result.
// A panic in fn rejects the future with [ErrPanic].
func Go[T any](fn func() (T, error)) *Future[T] {
	p, f := New[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				_ = p.Reject(fmt.Errorf("%w: %v", ErrPanic, r))
			}
		}()
		v, err := fn()
		_ = p.complete(v, err)
	}()
	return f
}

// Future returns the read side of p.
func (p *Promise[T]) Future() *Future[T] {
	return p.f
}

// Resolve completes the future with v.
func (p *Promise[T]) Resolve(v T) error {
	return p.complete(v, nil)
}

// Reject completes the future with err.
func (p *Promise[T]) Reject(err error) error {
	var zero T
	return p.complete(zero, err)
}

func (p *Promise[T]) complete(v T, err error) error {
	f := p.f
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return ErrAlreadyResolved
	}
	f.done = true
	f.value = v
	f.err = err
	cont := f.cont
	f.cont = nil
	f.mu.Unlock()

	if cont != nil {
		cont(v, err)
	}
	return nil
}

// Done reports whether the future has a result.
func (f *Future[T]) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// OnComplete attaches the single continuation of f.
//
// Returns [ErrContinuationAttached] if a continuation was already attached.
func (f *Future[T]) OnComplete(fn func(T, error)) error {
	f.mu.Lock()
	if f.attached {
		f.mu.Unlock()
		return ErrContinuationAttached
	}
	f.attached = true
	if !f.done {
		f.cont = fn
		f.mu.Unlock()
		return nil
	}
	v, err := f.value, f.err
	f.mu.Unlock()

	fn(v, err)
	return nil
}

// Then attaches fn as the continuation of f and returns a future of its result.
//
// A panic inside fn rejects the returned future with [ErrPanic] instead of unwinding
// the resolving goroutine.
func Then[T, U any](f *Future[T], fn func(T, error) U) *Future[U] {
	p, out := New[U]()
	err := f.OnComplete(func(v T, err error) {
		defer func() {
			if r := recover(); r != nil {
				_ = p.Reject(fmt.Errorf("%w: %v", ErrPanic, r))
			}
		}()
		_ = p.Resolve(fn(v, err))
	})
	if err != nil {
		_ = p.Reject(err)
	}
	return out
}

// Await blocks until f completes or ctx is done. It consumes the continuation slot.
func Await[T any](ctx context.Context, f *Future[T]) (T, error) {
	type result struct {
		v   T
		err error
	}

	ch := make(chan result, 1)
	if err := f.OnComplete(func(v T, err error) { ch <- result{v, err} }); err != nil {
		var zero T
		return zero, err
	}

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
