// Package para runs row oriented kernels on a fixed set of persistent
// goroutines.
//
// An Executor is created once and reused for every frame. Each Execute call
// splits a row range into one contiguous partition per thread, hands all
// but the last partition to parked workers and runs the last one on the
// calling goroutine, then waits until every worker is done.
package para

import (
	"errors"
	"sync"
	"sync/atomic"

	"stereogram/internal/logging"
)

var (
	// ErrClosed is returned by Execute after Close.
	ErrClosed = errors.New("para: executor closed")

	// ErrBusy is returned by Close when the executor is in use by another
	// goroutine. The executor is left untouched.
	ErrBusy = errors.New("para: executor busy")
)

// Callback processes rows [start, end). gstart and gend are the bounds of
// the whole Execute call.
type Callback[T any] func(ctx T, start, end, gstart, gend int)

// job is one partition handed to a worker.
type job[T any] struct {
	ctx          T
	start, end   int
	gstart, gend int
}

// worker is a parked goroutine. It runs one job per value received on
// begin and reports on done. Closing begin terminates it.
type worker[T any] struct {
	begin chan job[T]
	done  chan struct{}
}

// Executor owns threads-1 worker goroutines. The calling goroutine acts as
// the last thread.
//
// Execute calls are serialised; an Executor is safe for concurrent use but
// never runs two Execute calls at once.
type Executor[T any] struct {
	mu         sync.Mutex
	ctx        T
	fn         Callback[T]
	threads    int
	workers    []*worker[T]
	terminated bool

	executing atomic.Bool
	wg        sync.WaitGroup
}

// New creates an executor running fn with ctx. A threads value of 0 or less
// uses ThreadCount.
func New[T any](ctx T, fn Callback[T], threads int) *Executor[T] {
	if threads <= 0 {
		threads = ThreadCount()
	}

	e := &Executor[T]{
		ctx:     ctx,
		fn:      fn,
		threads: threads,
		workers: make([]*worker[T], threads-1),
	}

	e.wg.Add(len(e.workers))
	for i := range e.workers {
		w := &worker[T]{
			begin: make(chan job[T]),
			done:  make(chan struct{}),
		}
		e.workers[i] = w
		go e.run(w)
	}

	logging.Logger().Debug("para: executor started", "threads", threads)
	return e
}

// run is the worker loop: wait for a job, run it, report, repeat until
// begin is closed.
func (e *Executor[T]) run(w *worker[T]) {
	defer e.wg.Done()

	for j := range w.begin {
		e.fn(j.ctx, j.start, j.end, j.gstart, j.gend)
		w.done <- struct{}{}
	}
}

// Threads returns the number of partitions every Execute call uses.
func (e *Executor[T]) Threads() int {
	return e.threads
}

// Workers returns the number of spawned worker goroutines.
func (e *Executor[T]) Workers() int {
	return len(e.workers)
}

// Execute runs the callback over [start, end) and returns when every
// partition is done. An empty range is a no-op.
func (e *Executor[T]) Execute(start, end int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.execute(start, end)
}

// ExecuteWithContext is Execute with ctx used in place of the executor's
// context for this call only.
func (e *Executor[T]) ExecuteWithContext(ctx T, start, end int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	saved := e.ctx
	e.ctx = ctx
	defer func() { e.ctx = saved }()

	return e.execute(start, end)
}

// execute does the work of Execute. e.mu must be held.
func (e *Executor[T]) execute(start, end int) error {
	if e.terminated {
		return ErrClosed
	}
	if start >= end {
		return nil
	}

	e.executing.Store(true)
	defer e.executing.Store(false)

	for i, w := range e.workers {
		s, t := bounds(start, end, i, e.threads)
		if s == t {
			continue
		}
		w.begin <- job[T]{ctx: e.ctx, start: s, end: t, gstart: start, gend: end}
	}

	// Wait for the workers even if the local partition panics, so no
	// worker is left holding a job when the panic unwinds.
	defer func() {
		for i, w := range e.workers {
			if s, t := bounds(start, end, i, e.threads); s != t {
				<-w.done
			}
		}
	}()

	s, t := bounds(start, end, e.threads-1, e.threads)
	if s != t {
		e.fn(e.ctx, s, t, start, end)
	}

	return nil
}

// IsExecuting reports whether an Execute call was in progress at some point
// during the call. The answer may be stale as soon as it is returned.
func (e *Executor[T]) IsExecuting() bool {
	return e.executing.Load()
}

// Close stops and joins every worker. It is safe to call on a nil executor
// and more than once. If another goroutine holds the executor, Close does
// nothing and returns ErrBusy.
func (e *Executor[T]) Close() error {
	if e == nil {
		return nil
	}
	if !e.mu.TryLock() {
		logging.Logger().Warn("para: close abandoned, executor busy")
		return ErrBusy
	}
	defer e.mu.Unlock()

	if e.terminated {
		return nil
	}
	e.terminated = true

	for _, w := range e.workers {
		close(w.begin)
	}
	e.wg.Wait()

	logging.Logger().Debug("para: executor stopped", "workers", len(e.workers))
	return nil
}

// Partition returns the row range of partition i of threads partitions of
// [start, end).
func Partition(start, end, i, threads int) (int, int) {
	return bounds(start, end, i, threads)
}

func bounds(start, end, i, threads int) (int, int) {
	n := end - start
	return start + i*n/threads, start + (i+1)*n/threads
}
