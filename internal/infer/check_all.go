package infer

import (
	"context"
	"runtime"
	"sync"

	"github.com/roach88/rae/internal/algebra"
)

// Outcome is the result of checking one query in a batch.
type Outcome struct {
	Query  algebra.Query
	Result *Result // nil when Err is set
	Err    error
}

// CheckAll checks independent queries on a pool of workers and returns one
// Outcome per query, in input order.
//
// workers <= 0 uses runtime.NumCPU(). The Env is shared read-only, so no
// locking is involved. Once ctx is cancelled no further queries are
// dispatched; their outcomes carry ctx.Err(). Queries already running
// complete normally.
func (c *Checker) CheckAll(ctx context.Context, queries []algebra.Query, workers int) []Outcome {
	outcomes := make([]Outcome, len(queries))
	for i, q := range queries {
		outcomes[i].Query = q
	}
	if len(queries) == 0 {
		return outcomes
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(queries))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := c.Check(queries[i].Root)
				outcomes[i].Result, outcomes[i].Err = res, err
			}
		}()
	}

	dispatched := 0
dispatch:
	for dispatched < len(queries) {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- dispatched:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()

	for i := dispatched; i < len(queries); i++ {
		outcomes[i].Err = ctx.Err()
	}
	c.logger.Debug("checked queries", "total", len(queries), "dispatched", dispatched, "workers", workers)
	return outcomes
}
