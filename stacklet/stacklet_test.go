package stacklet_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/go-foundations/forkjoin/stacklet"
)

type StackletSuite struct {
	suite.Suite
}

func (s *StackletSuite) TestAllocateWithinSegment() {
	c := stacklet.NewChain()
	buf := c.Allocate(64, 8)
	s.Len(buf, 64)
	s.Equal(0, c.FreeListLen())
}

func (s *StackletSuite) TestAllocateAlignsOffset() {
	c := stacklet.NewChain()
	_ = c.Allocate(3, 1)
	buf := c.Allocate(16, 16)
	// Only observable effect of alignment is that successive allocations
	// don't alias; verify by writing through both and checking no overlap.
	first := c.Allocate(16, 16)
	for i := range buf {
		buf[i] = 0xAA
	}
	for i := range first {
		first[i] = 0xBB
	}
	for _, v := range buf {
		s.Equal(byte(0xAA), v)
	}
}

func (s *StackletSuite) TestDeallocateOutOfOrderPanics() {
	c := stacklet.NewChain()
	a := c.Allocate(stacklet.DefaultSegmentSize-64, 1)
	_ = a
	// Force a second segment.
	b := c.Allocate(128, 1)
	_ = b

	s.Panics(func() {
		// Deallocating out of LIFO order across a segment boundary must
		// be caught, not silently corrupt the chain.
		c.Deallocate(64)
		c.Deallocate(128)
		c.Deallocate(999999)
	})
}

func (s *StackletSuite) TestAdoptInstallsHandle() {
	c1 := stacklet.NewChain()
	c1.Allocate(32, 1)
	h := c1.Current()

	c2 := stacklet.NewChain()
	c2.Adopt(h)
	// After adopting c1's current segment, c2 can allocate into the
	// remaining space of that same segment without panicking.
	s.NotPanics(func() {
		c2.Allocate(32, 1)
	})
}

func TestStackletSuite(t *testing.T) {
	suite.Run(t, new(StackletSuite))
}
