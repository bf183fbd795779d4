// Package inline provides a scheduler that runs every root job to
// completion synchronously on the calling goroutine — useful for
// testing, debugging, and benchmarking without any real concurrency.
// It also doubles as a sequential-equivalence oracle: with one worker
// and no stealing ever possible, every fork behaves exactly like a
// call.
package inline

import (
	"context"

	"github.com/go-foundations/forkjoin/forkjoin"
	"github.com/go-foundations/forkjoin/handle"
	"github.com/go-foundations/forkjoin/worker"
)

// Pool is a single-worker, zero-concurrency scheduler.
type Pool struct {
	ctx context.Context
	w   *worker.Context
	done bool
}

// New constructs an inline pool. Its single worker context is created
// immediately, on the calling goroutine.
func New() *Pool {
	return &Pool{
		ctx: context.Background(),
		w:   worker.Init(func() {}),
	}
}

// Schedule runs h to completion before returning, including any
// forking/joining it performs.
func (p *Pool) Schedule(h *handle.SubmitHandle) {
	forkjoin.Resume(p.ctx, p.w, h)
}

// Close finalizes the pool's worker context. Call at most once, after
// every Schedule call has returned.
func (p *Pool) Close() {
	if p.done {
		return
	}
	p.done = true
	worker.Finalize(p.w)
}
