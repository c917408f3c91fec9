package viewcache

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Executor dispatches a loader invocation to a worker.
//
// Go must not block the caller, the cache calls it outside of any lock.
type Executor interface {
	Go(ctx context.Context, fn func(ctx context.Context))
}

// GoExecutor runs loaders in goroutines.
//
// The caller context is detached, so a background revalidation is not cut
// short when the request that triggered it goes away.
type GoExecutor struct {
	sem *semaphore.Weighted
}

// NewGoExecutor creates an executor with a cap on concurrently running
// loaders. A cap of 0 disables the limit.
//
// The cap keeps a mass invalidation from fanning out into an unbounded
// number of simultaneous loads; queued loads start as running ones finish.
func NewGoExecutor(maxConcurrent int64) *GoExecutor {
	e := &GoExecutor{}

	if maxConcurrent > 0 {
		e.sem = semaphore.NewWeighted(maxConcurrent)
	}

	return e
}

// Go implements Executor.
func (e *GoExecutor) Go(ctx context.Context, fn func(ctx context.Context)) {
	dctx := detachedContext{ctx}

	go func() {
		if e.sem != nil {
			if err := e.sem.Acquire(dctx, 1); err != nil {
				return
			}
			defer e.sem.Release(1)
		}

		fn(dctx)
	}()
}

// SyncExecutor runs loaders on the calling goroutine for deterministic
// tests. The dispatched load finishes before Go returns.
type SyncExecutor struct{}

// Go implements Executor.
func (SyncExecutor) Go(ctx context.Context, fn func(ctx context.Context)) {
	fn(ctx)
}
