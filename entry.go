package viewcache

import "time"

// State is the load state of a cache entry.
type State int

const (
	// Loading means a load is running and no value was ever stored.
	Loading State = iota + 1

	// Success means the entry holds a value, possibly past its TTL.
	Success

	// Failed means the last load ended with an error.
	Failed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	}

	return "unknown"
}

// Terminal reports whether the state is the outcome of a finished load.
func (s State) Terminal() bool {
	return s == Success || s == Failed
}

// NeverExpires is a ttl value for entries that do not expire.
const NeverExpires = time.Duration(0)

// entry is an immutable per-key cache slot.
//
// Entries are replaced wholesale on every transition under the cache
// lock, never mutated in place, so concurrent readers can not observe a
// partially updated slot.
type entry struct {
	state State

	// val is set iff state is Success.
	val interface{}

	// err is set iff state is Failed.
	err error

	loadedAt time.Time
	ttl      time.Duration

	// load is non-nil iff a load is in flight for the key, either the
	// initial one or a background revalidation.
	load *Load
}

// expired reports whether the entry needs a (re)load: the last load
// failed, or the stored value is past its TTL.
func (e entry) expired(now time.Time) bool {
	if e.state != Success {
		return true
	}

	if e.ttl == NeverExpires {
		return false
	}

	return now.After(e.loadedAt.Add(e.ttl))
}
