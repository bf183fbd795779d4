package forkjoin

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/go-foundations/forkjoin/frame"
	"github.com/go-foundations/forkjoin/handle"
	"github.com/go-foundations/forkjoin/internal/rlog"
	"github.com/go-foundations/forkjoin/scheduler"
	"github.com/go-foundations/forkjoin/worker"
)

// rootBlock is the root frame extended with a binary semaphore and a
// result cell, constructed on the synchronous caller's stack. The
// semaphore is a buffered channel of capacity 1: Acquire is a receive,
// Release is a non-blocking send, guaranteed to be sent exactly once by
// the deferred release in run() on every terminating path, including a
// panic unwinding out of body.
type rootBlock[T any] struct {
	f      *frame.Frame
	sem    chan struct{}
	result T
	err    error
}

func newRootBlock[T any]() *rootBlock[T] {
	return &rootBlock[T]{
		f:   frame.New(nil, frame.Root),
		sem: make(chan struct{}, 1),
	}
}

func (rb *rootBlock[T]) run(ctx context.Context, body func(context.Context) (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			rb.err = panicToErr(r)
		}
		rb.sem <- struct{}{}
	}()
	rb.result, rb.err = body(ctx)
}

func panicToErr(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("forkjoin: root frame panicked: %v", r)
}

// SyncWait is the entry point for synchronous execution of an async
// function from non-runtime code. It must never be called from within a
// running frame — doing so is a contract violation.
func SyncWait[T any](ctx context.Context, sch scheduler.Scheduler, fn func(context.Context) T) T {
	rlog.Assert(frame.From(ctx) == nil, "forkjoin: SyncWait called from within a running frame")

	rb := newRootBlock[T]()
	rb.f.Ambient = ctx
	rb.f.Run = func(runCtx context.Context) {
		rb.run(runCtx, func(c context.Context) (T, error) { return fn(c), nil })
	}

	h := handle.New(rb.f)
	sch.Schedule(h)

	<-rb.sem
	return rb.result
}

// SyncWaitErr is SyncWait for async functions that report failure via
// error.
func SyncWaitErr[T any](ctx context.Context, sch scheduler.Scheduler, fn func(context.Context) (T, error)) (T, error) {
	rlog.Assert(frame.From(ctx) == nil, "forkjoin: SyncWaitErr called from within a running frame")

	rb := newRootBlock[T]()
	rb.f.Ambient = ctx
	rb.f.Run = func(runCtx context.Context) { rb.run(runCtx, fn) }

	h := handle.New(rb.f)
	sch.Schedule(h)

	<-rb.sem
	return rb.result, rb.err
}

// SyncWaitCtx is SyncWaitErr with a cancellable wait: if ctx is done
// before the root job completes, it returns ctx.Err() immediately
// without waiting for the (still-running, now orphaned) job to finish.
// It uses golang.org/x/sync/semaphore's Acquire(ctx, n) instead of the
// plain channel-based rootBlock.sem SyncWait/SyncWaitErr use, since a
// bare channel receive has no way to also select on ctx.Done().
//
// The orphaned job still runs to completion on its worker and releases
// sem exactly once, same as any other root job — SyncWaitCtx simply stops
// waiting for that release.
func SyncWaitCtx[T any](ctx context.Context, sch scheduler.Scheduler, fn func(context.Context) (T, error)) (T, error) {
	rlog.Assert(frame.From(ctx) == nil, "forkjoin: SyncWaitCtx called from within a running frame")

	rb := newRootBlock[T]()
	rb.f.Ambient = ctx
	sem := semaphore.NewWeighted(1)
	rlog.Assert(sem.TryAcquire(1), "forkjoin: freshly constructed semaphore must be acquirable")

	rb.f.Run = func(runCtx context.Context) {
		rb.run(runCtx, fn)
		sem.Release(1)
	}

	h := handle.New(rb.f)
	sch.Schedule(h)

	if err := sem.Acquire(ctx, 1); err != nil {
		var zero T
		return zero, err
	}
	return rb.result, rb.err
}

// Resume runs h to completion, including whatever stealing and joining
// the root call entails, on the calling goroutine. w must be a worker
// context created by worker.Init.
func Resume(ctx context.Context, w *worker.Context, h *handle.SubmitHandle) {
	rlog.Assert(w != nil, "forkjoin: Resume called without a worker context")
	runCtx := worker.With(ctx, w)
	w.RunFrame(runCtx, h.Value)
}
