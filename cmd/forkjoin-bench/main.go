// Command forkjoin-bench runs one of the example algorithms against one
// of the three scheduler implementations and reports wall-clock time.
// Pool and algorithm selection come from a TOML config file; each run is
// stamped with a UUID for log correlation, the same way a real job-queue
// front-end tags every submitted unit of work.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/go-foundations/forkjoin/examples/fib"
	"github.com/go-foundations/forkjoin/examples/matmul"
	"github.com/go-foundations/forkjoin/examples/nqueens"
	"github.com/go-foundations/forkjoin/examples/reduce"
	"github.com/go-foundations/forkjoin/forkjoin"
	"github.com/go-foundations/forkjoin/internal/rlog"
	"github.com/go-foundations/forkjoin/pool/busy"
	"github.com/go-foundations/forkjoin/pool/inline"
	"github.com/go-foundations/forkjoin/pool/parking"
	"github.com/go-foundations/forkjoin/scheduler"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (algorithm, pool, workers, n)")
	production := flag.Bool("production", false, "use a production-style JSON logger instead of development console output")
	flag.Parse()

	rlog.Configure(*production)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runID := uuid.New()
	sch, closeSch, err := buildScheduler(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeSch()

	start := time.Now()
	result, err := runAlgorithm(sch, cfg)
	elapsed := time.Since(start)

	if err != nil {
		fmt.Fprintf(os.Stderr, "run %s: %v\n", runID, err)
		os.Exit(1)
	}

	fmt.Printf("run %s: algorithm=%s pool=%s workers=%d n=%d result=%v elapsed=%v\n",
		runID, cfg.Algorithm, cfg.Pool, cfg.Workers, cfg.N, result, elapsed)
}

func buildScheduler(cfg config) (scheduler.Scheduler, func(), error) {
	switch cfg.Pool {
	case "inline":
		p := inline.New()
		return p, p.Close, nil
	case "busy":
		p := busy.New(cfg.Workers)
		return p, p.Shutdown, nil
	case "parking":
		p := parking.New(cfg.Workers)
		return p, p.Shutdown, nil
	default:
		return nil, nil, fmt.Errorf("forkjoin-bench: unknown pool %q (want inline, busy, or parking)", cfg.Pool)
	}
}

func runAlgorithm(sch scheduler.Scheduler, cfg config) (any, error) {
	ctx := context.Background()
	switch cfg.Algorithm {
	case "fib":
		return forkjoin.SyncWait(ctx, sch, func(c context.Context) int {
			return fib.Fib(c, cfg.N)
		}), nil
	case "nqueens":
		return forkjoin.SyncWait(ctx, sch, func(c context.Context) int {
			return nqueens.Count(c, cfg.N)
		}), nil
	case "reduce":
		elems := make([]int, cfg.N)
		for i := range elems {
			elems[i] = i + 1
		}
		return forkjoin.SyncWait(ctx, sch, func(c context.Context) int {
			return reduce.Reduce(c, elems, 0, func(e int) int { return e }, func(a, b int) int { return a + b })
		}), nil
	case "matmul":
		size := 64
		for size < cfg.N {
			size *= 2
		}
		a := matmul.NewMatrix(size)
		b := matmul.NewMatrix(size)
		for i := 0; i < size; i++ {
			a.Data[i*size+i] = 1
			b.Data[i*size+i] = 2
		}
		return forkjoin.SyncWait(ctx, sch, func(c context.Context) *matmul.Matrix {
			return matmul.Multiply(c, a, b)
		}), nil
	default:
		return nil, fmt.Errorf("forkjoin-bench: unknown algorithm %q (want fib, nqueens, reduce, or matmul)", cfg.Algorithm)
	}
}
