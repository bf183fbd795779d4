package busy_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/go-foundations/forkjoin/forkjoin"
	"github.com/go-foundations/forkjoin/pool/busy"
)

type BusySuite struct {
	suite.Suite
}

func (s *BusySuite) TestNewWithConfigClampsInvalidValues() {
	p := busy.NewWithConfig(busy.Config{})
	defer p.Shutdown()

	s.Equal(1, p.NumWorkers())

	got := forkjoin.SyncWait(context.Background(), p, func(c context.Context) int {
		return 42
	})
	s.Equal(42, got)
}

func (s *BusySuite) TestNumWorkersAndWorkerAccessor() {
	p := busy.New(3)
	defer p.Shutdown()

	s.Equal(3, p.NumWorkers())
	seen := map[int]bool{}
	for i := 0; i < p.NumWorkers(); i++ {
		w := p.Worker(i)
		s.NotNil(w)
		s.False(seen[w.ID])
		seen[w.ID] = true
	}
}

// TestThousandIndependentRoots submits 1000 root jobs concurrently, each
// returning its own index; every caller must get its own value back,
// regardless of which worker (or thief) ends up running which root.
func (s *BusySuite) TestThousandIndependentRoots() {
	p := busy.New(4)
	defer p.Shutdown()

	const n = 1000
	results := make([]int, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			results[idx] = forkjoin.SyncWait(context.Background(), p, func(c context.Context) int {
				return idx
			})
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		s.Equal(i, got)
	}
}

func TestBusySuite(t *testing.T) {
	suite.Run(t, new(BusySuite))
}
