// Package frame defines the per-call record: parent link, join counter,
// tag, ambient context, resume thunk, and stacklet handle. A forked
// call's result is not stored here; it lives in package forkjoin's
// Future.
//
// Go has no portable way to suspend an arbitrary native call stack and
// resume it on a different goroutine, so a Frame is never suspended in
// the middle of its body. A Fork-tagged Frame is a not-yet-started unit
// of work held as a single type-erased thunk (Run) rather than a captured
// coroutine, the same shape java.util.concurrent's ForkJoinTask uses:
// whichever worker pops or steals it runs it from the start. A frame
// waiting in Join keeps its goroutine and helps with other work meanwhile.
package frame

import (
	"context"
	"sync/atomic"

	"github.com/go-foundations/forkjoin/stacklet"
)

// Tag identifies how a Frame participates in stealing.
type Tag int

const (
	// Root frames are the entry point of a sync_wait call.
	Root Tag = iota
	// Fork frames may be stolen from a worker's deque.
	Fork
	// Call frames run inline and never leave the spawning worker.
	Call
)

func (t Tag) String() string {
	switch t {
	case Root:
		return "root"
	case Fork:
		return "fork"
	case Call:
		return "call"
	default:
		return "unknown"
	}
}

// Frame represents one suspended or running async call.
//
// Invariants, preserved by the packages that construct and mutate a
// Frame (forkjoin, worker):
//
//	I1: a Frame is reachable from exactly one of {a deque slot, a
//	    submission list node, a worker's current-frame register}.
//	I2: JoinCount >= 1 while the frame's own body is executing.
//	I3: Stacklet outlives the frame (owned by the worker that runs it).
//	I4: only the frame's parent reads its result, and only after
//	    observing JoinCount == 0 (the result lives in package
//	    forkjoin's Future, whose Get is documented as valid only after
//	    Join; this is not checked at run time).
type Frame struct {
	Parent *Frame

	// JoinCount starts at 1 (the frame's own body "holds" one unit of
	// the count) and is incremented once per Fork (or Switch) and
	// decremented once per completed child plus once when the frame's
	// body calls Join. It reaches zero exactly when the frame is ready for
	// its continuation to proceed.
	JoinCount atomic.Int64

	// Stacklet is the cactus-stack segment this frame's scratch
	// allocations live on. Set by whichever worker runs the frame;
	// transferred wholesale on a successful steal.
	Stacklet stacklet.Handle

	Tag Tag

	// Ambient is the context.Context this frame was forked (or rooted)
	// from, captured at Fork/Switch/SyncWait time rather than supplied by
	// whichever worker eventually executes Run. A steal hands a frame to
	// a different goroutine with a different local worker binding, but
	// the *user's* values and cancellation must still travel with the
	// frame itself rather than leak in from whichever loop happens to
	// dispatch it — see worker.Context's run helper, the only reader of
	// this field. Nil for frames that have no user ctx of their own yet
	// (only possible before forkjoin sets it, never once Run is
	// reachable).
	Ambient context.Context

	// Run is the resume entry point for a Fork-tagged frame: the thunk
	// a worker calls after popping or stealing this frame from a
	// deque, with ctx already carrying this Frame as current (see
	// With/From in this package) and the executing worker bound by the
	// caller. Root frames also use Run, set by forkjoin.SyncWait. Call
	// frames never populate Run; they execute inline via a direct Go
	// function call and are never pushed anywhere.
	Run func(ctx context.Context)
}

// New returns a Frame with the self-reference unit of JoinCount already
// held.
func New(parent *Frame, tag Tag) *Frame {
	f := &Frame{Parent: parent, Tag: tag}
	f.JoinCount.Store(1)
	return f
}
