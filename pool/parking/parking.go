// Package parking provides a fixed-size worker pool whose idle workers
// park on a per-worker wake channel instead of busy-polling, trading
// wake-up latency for near-zero idle CPU use. A bounded
// semaphore.Weighted caps how many workers may concurrently scan peers
// for steal candidates, so a mostly-idle pool doesn't burn every core
// re-walking empty deques.
package parking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/go-foundations/forkjoin/handle"
	"github.com/go-foundations/forkjoin/worker"
)

// Config holds configuration for the parking pool.
type Config struct {
	NumWorkers int // Number of worker goroutines

	// IdlePoll bounds how long a parked worker waits before re-checking
	// shutdown and re-attempting a steal scan even absent a direct
	// wake-up — a safety net against a missed or coalesced Notify.
	IdlePoll time.Duration

	// MaxScanners caps how many workers may concurrently run the
	// peer-steal scan. Zero means NumWorkers-1 (at least 1).
	MaxScanners int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		NumWorkers: 4,
		IdlePoll:   2 * time.Millisecond,
	}
}

// Pool is a fixed-size work-stealing scheduler with parking idle workers.
type Pool struct {
	config  Config
	workers []*worker.Context
	wake    []chan struct{}
	scanSem *semaphore.Weighted
	stop    chan struct{}
	wg      sync.WaitGroup
	next    atomic.Int64
	closed  bool
}

// New starts n worker goroutines with otherwise default configuration.
// Each parks on its own wake channel when it finds no local, submitted,
// or stealable work, and is woken either by a Submit on its own context
// or by Shutdown.
func New(n int) *Pool {
	cfg := DefaultConfig()
	cfg.NumWorkers = n
	return NewWithConfig(cfg)
}

// NewWithConfig creates a parking pool with custom configuration.
func NewWithConfig(config Config) *Pool {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.IdlePoll <= 0 {
		config.IdlePoll = DefaultConfig().IdlePoll
	}
	if config.MaxScanners < 1 {
		config.MaxScanners = config.NumWorkers - 1
		if config.MaxScanners < 1 {
			config.MaxScanners = 1
		}
	}
	n := config.NumWorkers
	p := &Pool{
		config:  config,
		workers: make([]*worker.Context, n),
		wake:    make([]chan struct{}, n),
		stop:    make(chan struct{}),
	}
	p.scanSem = semaphore.NewWeighted(int64(config.MaxScanners))

	for i := range p.workers {
		idx := i
		p.wake[idx] = make(chan struct{}, 1)
		p.workers[idx] = worker.Init(func() {
			select {
			case p.wake[idx] <- struct{}{}:
			default:
			}
		})
	}
	peers := func() []*worker.Context { return p.workers }
	for _, w := range p.workers {
		w.Peers = peers
	}
	for i, w := range p.workers {
		p.wg.Add(1)
		go p.loop(i, w)
	}
	return p
}

func (p *Pool) loop(i int, w *worker.Context) {
	defer p.wg.Done()
	runCtx := worker.With(context.Background(), w)

	for {
		if w.HelpStepLocal(runCtx) {
			continue
		}
		if p.scanSem.TryAcquire(1) {
			did := w.HelpStep(runCtx)
			p.scanSem.Release(1)
			if did {
				continue
			}
		}

		select {
		case <-p.stop:
			if w.Empty() {
				return
			}
		case <-p.wake[i]:
		case <-time.After(p.config.IdlePoll):
		}
	}
}

// Schedule hands h to one worker's submission list, chosen round-robin,
// and wakes it if it is currently parked.
func (p *Pool) Schedule(h *handle.SubmitHandle) {
	idx := int(p.next.Add(1)-1) % len(p.workers)
	p.workers[idx].Submit(h)
}

// Shutdown signals every worker loop to exit once its deque drains, waits
// for all of them, then finalizes each worker context. A second sequential
// call returns immediately; concurrent calls are not synchronized.
func (p *Pool) Shutdown() {
	if p.closed {
		return
	}
	p.closed = true
	close(p.stop)
	for _, ch := range p.wake {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
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
