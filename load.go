package viewcache

import "context"

// Load is a handle to a single loader invocation, shared by every caller
// that asked for the key while it was in flight.
//
// Publishing of the result happens-before close of the done channel, so
// reads after <-Done() observe the final values.
type Load struct {
	done chan struct{}
	val  interface{}
	err  error
}

func newLoad() *Load {
	return &Load{done: make(chan struct{})}
}

// resolvedLoad wraps an already known result, e.g. a cache hit.
func resolvedLoad(val interface{}, err error) *Load {
	l := newLoad()
	l.complete(val, err)

	return l
}

// Done is closed once the result is available.
func (l *Load) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the result is available or ctx is cancelled.
//
// Cancelling ctx unblocks only this caller, the loader keeps running and
// its result is still written back to the cache.
func (l *Load) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-l.done:
		return l.val, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome of a finished load, it must not be called
// before Done is closed.
func (l *Load) Result() (interface{}, error) {
	select {
	case <-l.done:
		return l.val, l.err
	default:
		panic("viewcache: Result called on unfinished load")
	}
}

func (l *Load) complete(val interface{}, err error) {
	l.val, l.err = val, err
	close(l.done)
}
