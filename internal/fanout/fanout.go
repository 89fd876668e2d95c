// Package fanout runs independent, read-only calls concurrently with a fixed
// worker limit while keeping results in input order.
package fanout

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

type Pool struct {
	Workers int
	Limiter *rate.Limiter
}

// NewPool returns a pool of workers throttled to rps calls per second.
// rps <= 0 disables throttling.
func NewPool(workers int, rps float64) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{Workers: workers}
	if rps > 0 {
		burst := workers
		p.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return p
}

// Map calls fn for every item and returns the results in the order of items.
// The first error cancels the remaining calls and is returned.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}
	if p == nil {
		p = NewPool(1, 0)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := p.Workers
	if workers > len(items) {
		workers = len(items)
	}

	var (
		once     sync.Once
		firstErr error
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if p.Limiter != nil {
					if err := p.Limiter.Wait(ctx); err != nil {
						fail(err)
						continue
					}
				}
				r, err := fn(ctx, items[i])
				if err != nil {
					fail(err)
					continue
				}
				results[i] = r
			}
		}()
	}

feed:
	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
