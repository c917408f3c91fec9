package viewcache

import (
	"context"
	"sync/atomic"
	"time"
)

// Viewer is the per-session update state consumed by the Scheduler.
//
// It implements DirtySink, wire it as Config.Dirty of the session's Cache
// so every cache mutation requests a repaint on the next tick.
type Viewer struct {
	dirty atomic.Bool

	// lastRefresh is owned by the scheduler: stamped on Register and
	// updated from ticks.
	lastRefresh time.Time

	// Cache is this viewer's session cache, may be nil for viewers whose
	// panels carry no async data.
	Cache *Cache

	// RefreshInterval is an optional fixed repaint period independent of
	// cache activity, 0 disables it.
	RefreshInterval time.Duration

	// Render performs a full repaint, invoked from scheduler ticks.
	Render func(ctx context.Context) error

	// Online reports whether the viewer is still connected, nil means
	// always online.
	Online func() bool
}

// MarkDirty implements DirtySink, the next tick repaints this viewer.
func (v *Viewer) MarkDirty() {
	v.dirty.Store(true)
}

// consumeDirty reads and clears the dirty flag in one step, collapsing
// any number of mutations between ticks into a single repaint.
func (v *Viewer) consumeDirty() bool {
	return v.dirty.Swap(false)
}

func (v *Viewer) online() bool {
	return v.Online == nil || v.Online()
}

func (v *Viewer) intervalElapsed(now time.Time) bool {
	if v.RefreshInterval == 0 {
		return false
	}

	return now.Sub(v.lastRefresh) >= v.RefreshInterval
}
