// Package forkjoin implements the fork/join primitives: Fork, Call,
// Join, Switch and SyncWait/SyncWaitErr, plus the Resume entry point a
// scheduler calls on a worker thread.
//
// The current worker context and current frame are threaded explicitly
// through a context.Context value rather than goroutine-local storage,
// which Go does not expose portably — the same first-parameter
// convention every blocking call in this tree already follows.
package forkjoin

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/go-foundations/forkjoin/frame"
	"github.com/go-foundations/forkjoin/handle"
	"github.com/go-foundations/forkjoin/internal/rlog"
	"github.com/go-foundations/forkjoin/worker"
)

// Fork creates a child frame for fn, tagged Fork, and pushes it onto the
// calling worker's deque so it may be stolen. fn runs eventually — by
// this worker via a later self-Pop, or by a thief via Steal — never on
// the calling goroutine before Fork returns. The returned Future is only
// safe to Get after the enclosing frame's Join call has returned.
//
// The roles are reversed from a "dive into the child, leave the
// continuation stealable" policy to fit a language without stackful
// coroutines: the STEALABLE unit is the forked child itself (so a thief
// has real, runnable code to execute), while "the continuation" — the
// rest of the calling Go function after Fork returns — simply keeps
// running on the same goroutine, exactly as an ordinary sequential call
// would. The owner's Join then recovers Cilk-style locality by popping
// its own deque LIFO first, so the most recently forked child still
// tends to run before older ones, on the same worker, before any
// stealing happens. See DESIGN.md for the full rationale (modeled on
// java.util.concurrent.ForkJoinTask).
func Fork[T any](ctx context.Context, fn func(context.Context) T) *Future[T] {
	parent := frame.From(ctx)
	w := worker.From(ctx)
	rlog.Assert(parent != nil && w != nil, "forkjoin: Fork called outside a running frame")

	child := frame.New(parent, frame.Fork)
	child.Ambient = ctx
	child.Stacklet = w.Stacklet.Current()

	fut := &Future[T]{f: child}

	child.Run = func(childCtx context.Context) {
		fut.value = fn(childCtx)
		completeChild(child)
	}

	parent.JoinCount.Add(1)
	w.Deque.Push(child)

	return fut
}

// ForkErr is Fork for async functions that report failure via error,
// matching Go's ordinary (T, error) idiom.
func ForkErr[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	parent := frame.From(ctx)
	w := worker.From(ctx)
	rlog.Assert(parent != nil && w != nil, "forkjoin: ForkErr called outside a running frame")

	child := frame.New(parent, frame.Fork)
	child.Ambient = ctx
	child.Stacklet = w.Stacklet.Current()

	fut := &Future[T]{f: child}

	child.Run = func(childCtx context.Context) {
		fut.value, fut.err = fn(childCtx)
		completeChild(child)
	}

	parent.JoinCount.Add(1)
	w.Deque.Push(child)

	return fut
}

func completeChild(child *frame.Frame) {
	child.Parent.JoinCount.Add(-1)
}

// Call synchronously invokes fn as a sub-frame of the current frame, on
// the current goroutine: the sub-frame itself never touches a deque,
// never migrates to another worker, and is never stolen. It is
// otherwise a full-fledged frame — fn may still Fork its own children
// and Join them, exactly as a Fork'd body could, so a caller can swap a
// Call for a Fork (or back) without changing fn. child is constructed
// via frame.New so its join count already holds the same self-reference
// unit a Fork'd frame gets.
func Call[T any](ctx context.Context, fn func(context.Context) T) T {
	parent := frame.From(ctx)
	rlog.Assert(parent != nil, "forkjoin: Call called outside a running frame")

	child := frame.New(parent, frame.Call)
	childCtx := frame.With(ctx, child)
	return fn(childCtx)
}

// Join waits for every Future forked from the current frame to
// complete — whether that frame is running as a Fork'd child, a Call'd
// sub-frame, or the root. While waiting, the calling worker performs
// useful work from its own deque, its submission list, or by stealing
// from a peer — it never truly blocks, abandoning this logical line of
// execution to become a thief without needing to migrate this frame's
// continuation to a different goroutine (see this file's Fork doc
// comment). Only one Join call is supported per frame: one
// fork-batch-then-join barrier per frame; nested frames each get their
// own.
func Join(ctx context.Context) {
	f := frame.From(ctx)
	w := worker.From(ctx)
	rlog.Assert(f != nil && w != nil, "forkjoin: Join called outside a running frame")

	f.JoinCount.Add(-1)

	spins := 0
	for f.JoinCount.Load() > 0 {
		if !w.HelpStep(ctx) {
			spins++
			if spins > 64 {
				runtime.Gosched()
			}
		} else {
			spins = 0
		}
	}

	rlog.Assert(f.JoinCount.Load() == 0, "forkjoin: join count went negative",
		zap.Int64("join_count", f.JoinCount.Load()))
}

// Switch submits fn as a child of the current frame onto target's
// submission list, for explicit worker-affinity routing, and waits for
// it exactly like Join waits for any other forked child. The calling
// worker keeps helping elsewhere while target (or one of its thieves)
// executes fn. Switch performs its own fork+join pair and must be the
// only synchronization point used in the calling frame (it shares the
// "one Join per frame" limitation documented on Join).
//
// Routing goes through target.Submit rather than target.Deque.Push: the
// deque's Push side is owner-only (the single-producer side of the
// Chase-Lev algorithm), so a cross-goroutine handoff must use the MPSC
// submission list instead, exactly as an external root submission does.
func Switch(ctx context.Context, target *worker.Context, fn func(context.Context)) {
	parent := frame.From(ctx)
	w := worker.From(ctx)
	rlog.Assert(parent != nil && w != nil, "forkjoin: Switch called outside a running frame")

	child := frame.New(parent, frame.Fork)
	child.Ambient = ctx
	child.Run = func(childCtx context.Context) {
		fn(childCtx)
		completeChild(child)
	}

	parent.JoinCount.Add(1)
	target.Submit(handle.New(child))

	Join(ctx)
}
