package viewcache

import (
	"sync"
	"time"
)

// Ticker is the host scheduling primitive: it invokes a callback once per
// minimal host tick. The scheduler and the initial-load gate rely on
// periodic-callback semantics only, not on any particular timer.
type Ticker interface {
	// Repeat invokes fn once per tick until the returned stop is called.
	// Stop is safe to call more than once and from the callback itself.
	Repeat(fn func()) (stop func())
}

// IntervalTicker drives callbacks from a time.Ticker.
type IntervalTicker struct {
	// Interval is the tick period, 50ms by default.
	Interval time.Duration
}

var _ Ticker = IntervalTicker{}

// Repeat implements Ticker.
func (t IntervalTicker) Repeat(fn func()) func() {
	interval := t.Interval
	if interval == 0 {
		interval = 50 * time.Millisecond
	}

	tk := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-tk.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once

	return func() {
		once.Do(func() {
			tk.Stop()
			close(done)
		})
	}
}

// ManualTicker steps registered callbacks synchronously, for tests.
type ManualTicker struct {
	mu  sync.Mutex
	seq int
	fns map[int]func()
}

var _ Ticker = &ManualTicker{}

// Repeat implements Ticker.
func (t *ManualTicker) Repeat(fn func()) func() {
	t.mu.Lock()
	if t.fns == nil {
		t.fns = make(map[int]func())
	}
	t.seq++
	id := t.seq
	t.fns[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.fns, id)
		t.mu.Unlock()
	}
}

// Tick invokes every registered callback once.
func (t *ManualTicker) Tick() {
	t.mu.Lock()
	fns := make([]func(), 0, len(t.fns))
	for _, fn := range t.fns {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
