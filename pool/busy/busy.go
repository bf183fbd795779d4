// Package busy provides a fixed-size worker pool whose idle workers poll
// HelpStep rather than parking on a wake channel: after an empty round a
// worker sleeps for an exponentially growing backoff (MinBackoff up to
// MaxBackoff) and polls again, so new work is noticed within at most one
// backoff interval. One goroutine per Context, started at construction
// and torn down at Shutdown.
package busy

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-foundations/forkjoin/handle"
	"github.com/go-foundations/forkjoin/worker"
)

// Config holds configuration for the busy pool.
type Config struct {
	NumWorkers int           // Number of worker goroutines
	MinBackoff time.Duration // Initial sleep after an empty HelpStep round
	MaxBackoff time.Duration // Cap on the exponential backoff
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		NumWorkers: 4,
		MinBackoff: 200 * time.Microsecond,
		MaxBackoff: 8 * time.Millisecond,
	}
}

// Pool is a fixed-size work-stealing scheduler with busy-polling idle
// workers: the idle steal loop keeps polling, sleeping only for its
// backoff between empty rounds, with no parking.
type Pool struct {
	config  Config
	workers []*worker.Context
	stop    chan struct{}
	wg      sync.WaitGroup
	next    atomic.Int64
	closed  bool
}

// New starts n worker goroutines with otherwise default configuration,
// each initialised with its own deque and submission list and wired to
// steal from every other worker in the pool.
func New(n int) *Pool {
	cfg := DefaultConfig()
	cfg.NumWorkers = n
	return NewWithConfig(cfg)
}

// NewWithConfig creates a busy pool with custom configuration.
func NewWithConfig(config Config) *Pool {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.MinBackoff <= 0 {
		config.MinBackoff = DefaultConfig().MinBackoff
	}
	if config.MaxBackoff < config.MinBackoff {
		config.MaxBackoff = config.MinBackoff
	}
	p := &Pool{
		config:  config,
		workers: make([]*worker.Context, config.NumWorkers),
		stop:    make(chan struct{}),
	}
	for i := range p.workers {
		p.workers[i] = worker.Init(func() {})
	}
	peers := func() []*worker.Context { return p.workers }
	for _, w := range p.workers {
		w.Peers = peers
	}
	for _, w := range p.workers {
		p.wg.Add(1)
		go p.loop(w)
	}
	return p
}

func (p *Pool) loop(w *worker.Context) {
	defer p.wg.Done()
	ctx := worker.With(context.Background(), w)
	backoff := p.config.MinBackoff
	for {
		if w.HelpStep(ctx) {
			backoff = p.config.MinBackoff
			continue
		}
		select {
		case <-p.stop:
			if w.Empty() {
				return
			}
		default:
		}
		time.Sleep(backoff)
		if backoff < p.config.MaxBackoff {
			backoff *= 2
			if backoff > p.config.MaxBackoff {
				backoff = p.config.MaxBackoff
			}
		}
	}
}

// Schedule hands h to one worker's submission list, chosen round-robin.
// Any idle worker in the pool may end up running it or any of its forked
// children via stealing.
func (p *Pool) Schedule(h *handle.SubmitHandle) {
	idx := int(p.next.Add(1)-1) % len(p.workers)
	p.workers[idx].Submit(h)
}

// Shutdown signals every worker loop to exit once its deque drains, waits
// for all of them, then finalizes each worker context. Call it after
// every in-flight root job has returned via its own synchronization (e.g.
// SyncWait's semaphore). A second sequential call returns immediately;
// concurrent calls are not synchronized.
func (p *Pool) Shutdown() {
	if p.closed {
		return
	}
	p.closed = true
	close(p.stop)
	p.wg.Wait()
	for _, w := range p.workers {
		worker.Finalize(w)
	}
}

// NumWorkers reports the pool's fixed worker count.
func (p *Pool) NumWorkers() int { return len(p.workers) }

// Worker returns the i'th worker context, for callers that need to
// target a specific worker explicitly via forkjoin.Switch.
func (p *Pool) Worker(i int) *worker.Context { return p.workers[i] }
