// Package submit implements an intrusive multi-producer/single-consumer
// submission list: external submitters (other goroutines, or a
// scheduler's Schedule method) append root-call handles, and the owning
// worker drains the whole chain at once in push order.
package submit

import (
	"sync/atomic"

	"github.com/go-foundations/forkjoin/internal/rlog"
)

// Node is an intrusive list node carrying a payload of type T. Its next
// link is set by Push and rewritten by TryPopAll to point at the
// following node of the detached chain (nil at either chain's end). The
// zero value, wrapping the
// zero value of T, is not meaningful — construct with New.
type Node[T any] struct {
	next  atomic.Pointer[Node[T]]
	Value T
}

// New wraps v in a fresh, unqueued node.
func New[T any](v T) *Node[T] {
	return &Node[T]{Value: v}
}

// Next returns the node following n in a detached chain (the chain
// returned by TryPopAll), or nil at the end of the chain.
func (n *Node[T]) Next() *Node[T] {
	if n == nil {
		return nil
	}
	return n.next.Load()
}

// List is an MPSC stack: producers push to the head under a CAS loop; the
// single consumer detaches the entire chain and reverses it into push
// order.
type List[T any] struct {
	head atomic.Pointer[Node[T]]
}

// Push appends n to the list. n must be non-nil; submitting a nil handle
// is a contract violation.
func Push[T any](l *List[T], n *Node[T]) {
	rlog.Assert(n != nil, "submit: push of nil node")
	for {
		old := l.head.Load()
		n.next.Store(old)
		if l.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// TryPopAll atomically detaches the accumulated chain and returns its
// head in push (FIFO) order, or nil if nothing was queued.
func TryPopAll[T any](l *List[T]) *Node[T] {
	last := l.head.Swap(nil)
	if last == nil {
		return nil
	}

	// last is newest-pushed-first; reverse it so the caller sees the
	// chain in the order submitters actually pushed it.
	var prev *Node[T]
	cur := last
	for cur != nil {
		next := cur.next.Load()
		cur.next.Store(prev)
		prev = cur
		cur = next
	}
	return prev
}
