// Package worker implements the per-worker context and steal loop: a
// deque, a submission list, a notify hook, and the glue that turns an
// idle worker into a thief.
package worker

import (
	"context"
	"math/rand"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/go-foundations/forkjoin/deque"
	"github.com/go-foundations/forkjoin/frame"
	"github.com/go-foundations/forkjoin/handle"
	"github.com/go-foundations/forkjoin/internal/rlog"
	"github.com/go-foundations/forkjoin/stacklet"
	"github.com/go-foundations/forkjoin/submit"
)

var nextID atomic.Int64

// Context is the per-worker state: a deque, a submission list, a notify
// callback, and a pointer to the currently running frame. It is created
// by Init and torn down by Finalize. A Context is not bound to the
// goroutine that created it: goroutines reach it through a
// context.Context value (see With/From), so pool/busy and pool/parking
// create their contexts in their constructors and finalize them in
// Shutdown, not on the worker goroutines.
type Context struct {
	ID int

	Deque       *deque.Deque[frame.Frame]
	submissions submit.List[*frame.Frame]
	Notify      func()
	Stacklet    *stacklet.Chain

	// Current is the frame register; read-only from other goroutines,
	// written only by this context's own goroutine.
	Current *frame.Frame

	// Peers lists sibling worker contexts a steal attempt may target.
	// Set by the owning scheduler after Init, before the worker thread
	// starts its loop.
	Peers func() []*Context
}

// Init returns a fresh worker context. It installs no goroutine-local
// state, so it may be called from any goroutine.
func Init(notify func()) *Context {
	rlog.Assert(notify != nil, "worker: Init requires a non-nil notify function")
	return &Context{
		ID:       int(nextID.Add(1)),
		Deque:    deque.New[frame.Frame](256),
		Notify:   notify,
		Stacklet: stacklet.NewChain(),
	}
}

// Finalize tears down ctx once its worker loop has stopped, and asserts
// quiescence: the deque and submission list must both be empty. Call it
// exactly once; a repeated call is not detected.
func Finalize(ctx *Context) {
	rlog.Assert(ctx.Deque.IsEmpty(), "worker: finalize with non-empty deque", zap.Int("worker", ctx.ID))
	rlog.Assert(submit.TryPopAll(&ctx.submissions) == nil, "worker: finalize with pending submissions",
		zap.Int("worker", ctx.ID))
	ctx.Deque.DropRetired()
}

// Submit appends h to ctx's submission list and triggers ctx.Notify.
// Safe to call concurrently from any goroutine.
func (ctx *Context) Submit(h *handle.SubmitHandle) {
	rlog.Assert(h != nil, "worker: submit of nil handle")
	submit.Push(&ctx.submissions, h)
	ctx.Notify()
}

// TryPopAll detaches and returns the accumulated submission chain, or
// nil. Owner-only.
func (ctx *Context) TryPopAll() *handle.SubmitHandle {
	return submit.TryPopAll(&ctx.submissions)
}

// TryStealOnce attempts a single FIFO steal from ctx's own deque (used by
// peers, not by ctx's own loop — ctx pops its own deque via Deque.Pop).
func (ctx *Context) TryStealOnce() (*frame.Frame, bool) {
	v, res := ctx.Deque.Steal()
	return v, res == deque.Stolen
}

// Empty reports whether ctx's deque is currently empty. The submission
// list is not checked: the only way to inspect it is to drain it, which
// would lose submissions, so it is left to HelpStep/TryPopAll.
func (ctx *Context) Empty() bool {
	return ctx.Deque.IsEmpty()
}

// HelpStep performs one unit of useful work if any is available: pop the
// owner's own deque (LIFO, cache-friendly — the most recently forked
// child runs first, diving straight into it rather than spreading
// breadth-first), else drain and run every submitted root, else steal
// from a random peer. Returns false if nothing was available. Both the
// idle steal loop and a blocking Join (package forkjoin) call this in a
// loop. base must already carry this Context as the current worker (see
// With); HelpStep rebinds only the frame before invoking each task's
// Run.
func (ctx *Context) HelpStep(base context.Context) bool {
	if ctx.HelpStepLocal(base) {
		return true
	}
	return ctx.stealOnce(base)
}

// HelpStepLocal is HelpStep restricted to the owner's own deque and
// submission list — it never scans peers for stealable work. Callers
// that want to bound how many goroutines concurrently run the
// peer-steal scan (e.g. pool/parking's scanSem) use this instead of
// HelpStep when they haven't won a scan slot, and fall back to HelpStep
// once they have.
func (ctx *Context) HelpStepLocal(base context.Context) bool {
	if fr, ok := ctx.Deque.Pop(); ok {
		ctx.run(base, fr)
		return true
	}

	if h := ctx.TryPopAll(); h != nil {
		for cur := h; cur != nil; cur = cur.Next() {
			ctx.run(base, cur.Value)
		}
		return true
	}

	return false
}

// stealOnce scans every peer once, starting from a random offset, for a
// single stealable frame.
func (ctx *Context) stealOnce(base context.Context) bool {
	if ctx.Peers == nil {
		return false
	}
	peers := ctx.Peers()
	if len(peers) == 0 {
		return false
	}
	start := rand.Intn(len(peers))
	for i := 0; i < len(peers); i++ {
		victim := peers[(start+i)%len(peers)]
		if victim == ctx {
			continue
		}
		fr, res := victim.Deque.Steal()
		switch res {
		case deque.Stolen:
			ctx.Stacklet.Adopt(fr.Stacklet)
			ctx.run(base, fr)
			return true
		case deque.Aborted:
			// Lost the race; try the next victim this round rather than
			// looping on the same one.
			continue
		}
	}
	return false
}

// run invokes fr.Run with a context built from fr's own ambient context
// (the caller's original ctx, carried on the frame itself — see
// frame.Frame.Ambient) when set, falling back to base otherwise. This is
// what keeps a stolen frame's user-supplied values and cancellation
// intact even though it resumes on a goroutine other than the one that
// forked it; base only ever supplies this worker's own local binding.
func (ctx *Context) run(base context.Context, fr *frame.Frame) {
	runBase := base
	if fr.Ambient != nil {
		runBase = With(fr.Ambient, ctx)
	}
	prev := ctx.Current
	ctx.Current = fr
	fr.Run(frame.With(runBase, fr))
	ctx.Current = prev
}

// RunFrame is the entry point a scheduler's Resume call uses to run a
// freshly-submitted root frame on this worker. base must already carry
// this Context as the current worker.
func (ctx *Context) RunFrame(base context.Context, fr *frame.Frame) {
	ctx.run(base, fr)
}
