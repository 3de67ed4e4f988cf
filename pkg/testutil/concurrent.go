package testutil

import (
	"context"
	"errors"
	"sync"

	"signet/internal/sentinel"
)

// ConcurrentResult is the tally of one RunConcurrent drive. Store races
// surface as sentinel errors, so outcomes are bucketed along those:
// success, conflict, not-found, anything else.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	Errors    int32
}

// RunConcurrent launches fn in n goroutines at once and tallies the
// outcomes. It replaces the WaitGroup-plus-atomic-counters boilerplate
// that concurrency tests otherwise repeat.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	errs := make(chan error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			errs <- fn(i)
		}()
	}
	wg.Wait()
	close(errs)

	result := new(ConcurrentResult)
	for err := range errs {
		switch {
		case err == nil:
			result.Successes++
		case errors.Is(err, sentinel.ErrConflict):
			result.Conflicts++
		case errors.Is(err, sentinel.ErrNotFound):
			result.NotFounds++
		default:
			result.Errors++
		}
	}
	return result
}

// RunConcurrentCtx is RunConcurrent with a context threaded through to
// every call, for drives that must respect a deadline.
func RunConcurrentCtx(ctx context.Context, n int, fn func(ctx context.Context, idx int) error) *ConcurrentResult {
	return RunConcurrent(n, func(idx int) error {
		return fn(ctx, idx)
	})
}
