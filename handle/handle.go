// Package handle defines the submit handle that crosses the boundary
// between user/scheduler code and the core: an opaque, intrusively-
// linked reference to a frame (a root frame, or a frame routed to a
// specific worker by forkjoin.Switch), submitted to a worker's submission
// list and later resumed.
package handle

import (
	"github.com/go-foundations/forkjoin/frame"
	"github.com/go-foundations/forkjoin/submit"
)

// SubmitHandle is the opaque, intrusively-linked reference to a frame
// that a Scheduler's Schedule method and a worker's submission list both
// operate on.
type SubmitHandle = submit.Node[*frame.Frame]

// New wraps f in a fresh, unqueued handle. f is a Root-tagged frame from
// SyncWait/SyncWaitErr/SyncWaitCtx, or a Fork-tagged frame from
// forkjoin.Switch; the tag is not checked.
func New(f *frame.Frame) *SubmitHandle {
	return submit.New(f)
}
