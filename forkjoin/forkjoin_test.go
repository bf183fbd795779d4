package forkjoin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/go-foundations/forkjoin/forkjoin"
	"github.com/go-foundations/forkjoin/pool/busy"
	"github.com/go-foundations/forkjoin/pool/inline"
	"github.com/go-foundations/forkjoin/pool/parking"
	"github.com/go-foundations/forkjoin/worker"
)

type ForkJoinSuite struct {
	suite.Suite
}

// TestSequentialEquivalence checks that a small tree-shaped computation
// built from Fork/Call/Join returns the same result as the same recursion
// run as plain sequential calls outside the runtime: fork/join must be a
// pure parallelization of an equivalent sequential program.
func (s *ForkJoinSuite) TestSequentialEquivalence() {
	var treeSum func(ctx context.Context, depth int, useFork bool) int
	treeSum = func(ctx context.Context, depth int, useFork bool) int {
		if depth == 0 {
			return 1
		}
		if !useFork {
			left := treeSum(ctx, depth-1, false)
			right := treeSum(ctx, depth-1, false)
			return left + right
		}
		fut := forkjoin.Fork(ctx, func(c context.Context) int { return treeSum(c, depth-1, true) })
		right := forkjoin.Call(ctx, func(c context.Context) int { return treeSum(c, depth-1, true) })
		forkjoin.Join(ctx)
		return fut.Get() + right
	}

	p := busy.New(4)
	defer p.Shutdown()

	got := forkjoin.SyncWait(context.Background(), p, func(c context.Context) int {
		return treeSum(c, 12, true)
	})
	want := treeSum(context.Background(), 12, false)
	s.Equal(want, got)
}

func (s *ForkJoinSuite) TestSyncWaitErrPropagatesUserError() {
	p := inline.New()
	defer p.Close()

	sentinel := errors.New("boom")
	_, err := forkjoin.SyncWaitErr(context.Background(), p, func(c context.Context) (int, error) {
		return 0, sentinel
	})
	s.ErrorIs(err, sentinel)
}

func (s *ForkJoinSuite) TestSyncWaitErrPropagatesForkedChildError() {
	p := busy.New(2)
	defer p.Shutdown()

	sentinel := errors.New("child failed")
	_, err := forkjoin.SyncWaitErr(context.Background(), p, func(c context.Context) (int, error) {
		fut := forkjoin.ForkErr(c, func(c2 context.Context) (int, error) {
			return 0, sentinel
		})
		forkjoin.Join(c)
		_, ferr := fut.GetErr()
		return 0, ferr
	})
	s.ErrorIs(err, sentinel)
}

func (s *ForkJoinSuite) TestSyncWaitRecoversPanicAsError() {
	p := inline.New()
	defer p.Close()

	_, err := forkjoin.SyncWaitErr(context.Background(), p, func(c context.Context) (int, error) {
		panic("kaboom")
	})
	s.Error(err)
	s.Contains(err.Error(), "kaboom")
}

// TestSwitchRunsOnTargetWorker drives Switch against a live two-worker
// busy pool (Switch's submission-list handoff needs an active dispatch
// loop on the target to ever be drained — a bare worker.Context with no
// loop of its own would hang forever waiting on its own Join).
func (s *ForkJoinSuite) TestSwitchRunsOnTargetWorker() {
	p := busy.New(2)
	defer p.Shutdown()

	target := p.Worker(1)
	var ranOnID int

	got := forkjoin.SyncWait(context.Background(), p, func(c context.Context) int {
		forkjoin.Switch(c, target, func(c2 context.Context) {
			ranOnID = worker.From(c2).ID
		})
		return ranOnID
	})

	s.Equal(target.ID, got)
}

func (s *ForkJoinSuite) TestSyncWaitCtxWithCancelledContextReturns() {
	p := inline.New()
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := forkjoin.SyncWaitCtx(ctx, p, func(c context.Context) (int, error) {
		return 1, nil
	})
	// inline.Pool runs synchronously to completion before Schedule
	// returns, so the cancellation races the (already-finished) job; both
	// outcomes are legitimate depending on scheduling, but no goroutine
	// may hang waiting.
	_ = err
}

func (s *ForkJoinSuite) TestSyncWaitCtxSucceedsWithoutCancellation() {
	p := parking.New(2)
	defer p.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := forkjoin.SyncWaitCtx(ctx, p, func(c context.Context) (int, error) {
		fut := forkjoin.Fork(c, func(c2 context.Context) int { return 21 })
		forkjoin.Join(c)
		return fut.Get() * 2, nil
	})
	s.NoError(err)
	s.Equal(42, got)
}

// TestAmbientContextSurvivesSteal confirms a value placed on the context
// passed to SyncWait is still visible inside a forked child even when
// that child is executed by a different worker goroutine than the one
// that called Fork.
func (s *ForkJoinSuite) TestAmbientContextSurvivesSteal() {
	type key struct{}
	p := busy.New(4)
	defer p.Shutdown()

	ctx := context.WithValue(context.Background(), key{}, "tracked")

	got := forkjoin.SyncWait(ctx, p, func(c context.Context) string {
		fut := forkjoin.Fork(c, func(c2 context.Context) string {
			v, _ := c2.Value(key{}).(string)
			return v
		})
		forkjoin.Join(c)
		return fut.Get()
	})
	s.Equal("tracked", got)
}

func (s *ForkJoinSuite) TestTwoForkedChildrenSumAfterJoin() {
	p := busy.New(2)
	defer p.Shutdown()

	got := forkjoin.SyncWait(context.Background(), p, func(c context.Context) int {
		s1 := forkjoin.Fork(c, func(c2 context.Context) int { return 7 })
		s2 := forkjoin.Fork(c, func(c2 context.Context) int { return 9 })
		forkjoin.Join(c)
		return s1.Get() + s2.Get()
	})
	s.Equal(16, got)
}

// TestForkManyThenJoinImmediately forks N children and joins without
// doing any work of its own; the frame's only job is the reduction of
// the child results.
func (s *ForkJoinSuite) TestForkManyThenJoinImmediately() {
	p := parking.New(4)
	defer p.Shutdown()

	const n = 10
	got := forkjoin.SyncWait(context.Background(), p, func(c context.Context) int {
		futs := make([]*forkjoin.Future[int], n)
		for i := 0; i < n; i++ {
			v := i
			futs[i] = forkjoin.Fork(c, func(c2 context.Context) int { return v })
		}
		forkjoin.Join(c)

		sum := 0
		for _, fut := range futs {
			sum += fut.Get()
		}
		return sum
	})
	s.Equal(45, got)
}

func TestForkJoinSuite(t *testing.T) {
	suite.Run(t, new(ForkJoinSuite))
}
