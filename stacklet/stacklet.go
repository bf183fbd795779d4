// Package stacklet implements a cactus-stack allocator: a segmented,
// bump-allocated LIFO of frame-local memory that can migrate between
// workers when a frame is stolen.
//
// Each worker owns one Chain. An allocation bumps the current segment's
// offset; on overflow the Chain acquires a new segment from its
// free-list (or the heap) and links it behind the old one. Deallocation
// must reverse allocation order exactly — the allocator does not scan
// for holes.
package stacklet

import (
	"go.uber.org/zap"

	"github.com/go-foundations/forkjoin/internal/rlog"
)

// DefaultSegmentSize is the size of a freshly heap-allocated segment when
// the free-list is empty and no larger size is requested.
const DefaultSegmentSize = 64 * 1024

// segment is one contiguous buffer in the chain.
type segment struct {
	buf    []byte
	offset int
	prev   *segment
}

func newSegment(size int) *segment {
	if size < DefaultSegmentSize {
		size = DefaultSegmentSize
	}
	return &segment{buf: make([]byte, size)}
}

func (s *segment) empty() bool { return s.offset == 0 }

// Handle identifies a segment within a Chain; it is what migrates during
// a steal (Chain.Current / Chain.Adopt).
type Handle struct {
	seg *segment
}

// Chain is a per-worker LIFO of segments plus a free-list of retired,
// emptied segments. It is not safe for concurrent use from more than one
// goroutine at a time — ownership transfers explicitly via Adopt, never
// shared.
type Chain struct {
	top      *segment
	freelist []*segment
}

// NewChain returns a Chain with one initial segment.
func NewChain() *Chain {
	return &Chain{top: newSegment(DefaultSegmentSize)}
}

// Allocate reserves n bytes aligned to a (a must be a power of two) from
// the top segment, growing the chain on overflow. Allocation never
// fails: out-of-memory from the underlying make() is fatal, treated as
// resource exhaustion rather than a recoverable error.
func (c *Chain) Allocate(n int, a int) []byte {
	if a <= 0 {
		a = 1
	}
	for {
		aligned := alignUp(c.top.offset, a)
		if aligned+n <= len(c.top.buf) {
			c.top.offset = aligned + n
			return c.top.buf[aligned : aligned+n : aligned+n]
		}
		c.grow(n + a)
	}
}

func alignUp(off, a int) int {
	if a <= 1 {
		return off
	}
	rem := off % a
	if rem == 0 {
		return off
	}
	return off + (a - rem)
}

func (c *Chain) grow(minSize int) {
	var seg *segment
	for i, s := range c.freelist {
		if len(s.buf) >= minSize {
			seg = s
			c.freelist = append(c.freelist[:i], c.freelist[i+1:]...)
			break
		}
	}
	if seg == nil {
		size := minSize
		if size < DefaultSegmentSize {
			size = DefaultSegmentSize
		}
		seg = newSegment(size)
	}
	seg.offset = 0
	seg.prev = c.top
	c.top = seg
}

// Deallocate reverses the most recent allocation of n bytes. It is a
// contract violation to deallocate out of LIFO order; calling code
// should only ever unwind in the order it allocated. This call retires
// an emptied segment back to the free-list.
func (c *Chain) Deallocate(n int) {
	rlog.Assert(c.top.offset >= n, "stacklet: deallocate exceeds current segment offset",
		zap.Int("offset", c.top.offset), zap.Int("n", n))
	c.top.offset -= n
	if c.top.empty() && c.top.prev != nil {
		done := c.top
		c.top = c.top.prev
		done.prev = nil
		c.freelist = append(c.freelist, done)
	}
}

// Current returns a handle to the chain's top segment, read-only.
func (c *Chain) Current() Handle { return Handle{seg: c.top} }

// Adopt installs h's segment chain as current. Used on a successful
// steal (the thief adopts the stolen frame's stacklet chain) and when a
// worker resumes a frame it previously stole. The prior chain is NOT
// merged or freed — a stolen chain is never mutated by the victim again
// once the handshake succeeds, so the victim simply keeps its own chain
// rooted at whatever segment remains below the handoff point.
func (c *Chain) Adopt(h Handle) {
	rlog.Assert(h.seg != nil, "stacklet: adopt of nil handle")
	c.top = h.seg
}

// Outstanding reports segments currently linked into the chain (for
// testing/diagnostics; not part of the external contract).
func (c *Chain) Outstanding() int {
	n := 0
	for s := c.top; s != nil; s = s.prev {
		n++
	}
	return n
}

// FreeListLen reports the number of retired segments held for reuse.
func (c *Chain) FreeListLen() int { return len(c.freelist) }
