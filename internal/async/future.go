// Package async runs blocking work on a bounded worker pool and hands callers
// a Future for the result.
//
// Futures are completed exactly once. Cancelling a future cancels the context
// its task runs under, so work that honours its context (HTTP requests, codec
// checkouts) stops instead of finishing into a discarded result.
package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the pool width used when NewPool is given a non-positive
// size.
const DefaultWorkers = 16

// ErrPanicked is wrapped by the error a future completes with when its task
// panics.
var ErrPanicked = errors.New("async: task panicked")

// Pool bounds the number of tasks running at once. A nil *Pool runs every
// task on its own goroutine without a bound.
type Pool struct {
	sem     *semaphore.Weighted
	workers int
	logger  *slog.Logger
}

// NewPool creates a pool that runs at most workers tasks concurrently.
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the concurrency bound.
func (p *Pool) Workers() int {
	if p == nil {
		return 0
	}
	return p.workers
}

// Future is the eventual result of a task.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	val    T
	err    error
}

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	return &Future[T]{done: make(chan struct{}), cancel: cancel}
}

func (f *Future[T]) complete(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Resolved returns a future already completed with val.
func Resolved[T any](val T) *Future[T] {
	f := newFuture[T](nil)
	f.complete(val, nil)
	return f
}

// Failed returns a future already completed with err.
func Failed[T any](err error) *Future[T] {
	f := newFuture[T](nil)
	var zero T
	f.complete(zero, err)
	return f
}

// Await blocks until the future completes or ctx is done. Giving up on
// Await does not cancel the task; call Cancel for that.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Completed reports whether the future has a result.
func (f *Future[T]) Completed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome without blocking. ok is false while the task is
// still running.
func (f *Future[T]) Result() (val T, err error, ok bool) {
	if !f.Completed() {
		return val, nil, false
	}
	return f.val, f.err, true
}

// Cancel cancels the task's context. It is safe to call more than once and
// after completion.
func (f *Future[T]) Cancel() {
	if f.cancel != nil {
		f.cancel()
	}
}

// Go runs fn on p and returns its future.
func Go[T any](p *Pool, ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := newFuture[T](cancel)
	go func() {
		defer cancel()
		f.complete(run(ctx, p, fn))
	}()
	return f
}

// Then runs fn on p with prev's value once prev succeeds. A failed prev
// short-circuits: fn is not called and the returned future carries prev's
// error.
func Then[T, U any](p *Pool, ctx context.Context, prev *Future[T], fn func(context.Context, T) (U, error)) *Future[U] {
	ctx, cancel := context.WithCancel(ctx)
	f := newFuture[U](cancel)
	go func() {
		defer cancel()
		v, err := prev.Await(ctx)
		if err != nil {
			var zero U
			f.complete(zero, err)
			return
		}
		f.complete(run(ctx, p, func(ctx context.Context) (U, error) {
			return fn(ctx, v)
		}))
	}()
	return f
}

func run[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (val T, err error) {
	if p != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return val, err
		}
		defer p.sem.Release(1)
	}
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			if p != nil {
				p.logger.Error("async task panicked", "panic", r, "stack", string(buf))
			}
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return fn(ctx)
}
