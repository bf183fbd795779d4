package deque_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/go-foundations/forkjoin/deque"
)

type DequeSuite struct {
	suite.Suite
}

func (s *DequeSuite) TestPushPopLIFO() {
	d := deque.New[int](8)
	a, b, c := 1, 2, 3
	d.Push(&a)
	d.Push(&b)
	d.Push(&c)

	v, ok := d.Pop()
	s.True(ok)
	s.Equal(&c, v)

	v, ok = d.Pop()
	s.True(ok)
	s.Equal(&b, v)

	v, ok = d.Pop()
	s.True(ok)
	s.Equal(&a, v)

	_, ok = d.Pop()
	s.False(ok)
}

func (s *DequeSuite) TestStealFIFO() {
	d := deque.New[int](8)
	a, b, c := 1, 2, 3
	d.Push(&a)
	d.Push(&b)
	d.Push(&c)

	v, res := d.Steal()
	s.Equal(deque.Stolen, res)
	s.Equal(&a, v)

	v, res = d.Steal()
	s.Equal(deque.Stolen, res)
	s.Equal(&b, v)
}

func (s *DequeSuite) TestStealEmpty() {
	d := deque.New[int](8)
	_, res := d.Steal()
	s.Equal(deque.Empty, res)
}

func (s *DequeSuite) TestGrowsPastInitialCapacity() {
	d := deque.New[int](4)
	vals := make([]int, 200)
	for i := range vals {
		vals[i] = i
		d.Push(&vals[i])
	}
	s.Equal(200, d.Size())

	count := 0
	for {
		if _, ok := d.Pop(); ok {
			count++
			continue
		}
		break
	}
	s.Equal(200, count)
	s.True(d.RetiredCount() > 0)
}

// TestConcurrentStealVsPop exercises the single-element race between the
// owner's Pop and a thief's Steal: every pushed element must be consumed
// exactly once, by exactly one side.
func (s *DequeSuite) TestConcurrentStealVsPop() {
	const n = 20000
	d := deque.New[int](32)
	vals := make([]int, n)
	for i := range vals {
		vals[i] = i
		d.Push(&vals[i])
	}

	seen := make([]int32, n)
	var mu sync.Mutex
	var wg sync.WaitGroup

	stolen := 0
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			v, res := d.Steal()
			switch res {
			case deque.Stolen:
				mu.Lock()
				seen[*v]++
				stolen++
				mu.Unlock()
			case deque.Empty:
				return
			case deque.Aborted:
				continue
			}
		}
	}()

	popped := 0
	for {
		v, ok := d.Pop()
		if !ok {
			break
		}
		mu.Lock()
		seen[*v]++
		popped++
		mu.Unlock()
	}

	wg.Wait()

	for i, count := range seen {
		s.LessOrEqual(count, int32(1), "index %d consumed more than once", i)
	}
	total := int32(0)
	for _, count := range seen {
		total += count
	}
	s.Equal(int32(n), total, "every pushed element must eventually be consumed exactly once")
}

func TestDequeSuite(t *testing.T) {
	suite.Run(t, new(DequeSuite))
}
