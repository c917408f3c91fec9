package viewcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// DirtySink receives a one-way notification on every cache mutation.
//
// It is not a publish/subscribe mechanism; the per-viewer update state
// uses it to request a repaint on the next scheduler tick.
type DirtySink interface {
	MarkDirty()
}

// Loader produces a value for a cache key.
//
// It is invoked on a worker supplied by the Executor and may block
// arbitrarily long. It may be invoked again after a miss or an error, no
// idempotency is assumed beyond that. The context carries values only,
// cancellation of started loads is not supported.
type Loader func(ctx context.Context) (interface{}, error)

// Config is optional configuration for New.
type Config struct {
	// Name is added to logs and stats.
	Name string

	// Dirty is notified on every mutation, nil for none.
	Dirty DirtySink

	// Executor dispatches loaders, NewGoExecutor(0) by default.
	Executor Executor

	// Logger collects messages with context.
	Logger ctxd.Logger

	// Stats tracks stats.
	Stats stats.Tracker

	// Now is a time source override for tests, time.Now by default.
	Now func() time.Time
}

// Cache stores results of asynchronous loads for one viewer session.
//
// Values are kept per key with a TTL and stay readable after expiry while
// a background revalidation is in flight. Concurrent requests for one key
// share a single loader run. All methods are safe for concurrent use;
// no lock is held across a loader call, so a slow loader never stalls
// reads of its own or unrelated keys.
//
// Create with New when the viewer's session starts, Clear when it ends.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	config Config
	dirty  DirtySink
	exec   Executor
	log    ctxd.Logger
	stat   stats.Tracker
	now    func() time.Time
}

// New creates a per-viewer cache instance with optional configuration.
func New(cfg ...Config) *Cache {
	config := Config{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	c := &Cache{
		entries: make(map[string]entry),
		config:  config,
		dirty:   config.Dirty,
		exec:    config.Executor,
		log:     config.Logger,
		stat:    config.Stats,
		now:     config.Now,
	}

	if c.dirty == nil {
		c.dirty = NoOpSink{}
	}

	if c.exec == nil {
		c.exec = NewGoExecutor(0)
	}

	if c.log == nil {
		c.log = ctxd.NoOpLogger{}
	}

	if c.stat == nil {
		c.stat = stats.NoOp{}
	}

	if c.now == nil {
		c.now = time.Now
	}

	return c
}

// Get returns the stored value for key.
//
// An expired value is returned as long as it has not been replaced, so
// renderers keep painting the old data during background revalidation.
func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok || e.state != Success {
		c.stat.Add(ctx, MetricMiss, 1, "name", c.config.Name)

		return nil, false
	}

	c.stat.Add(ctx, MetricHit, 1, "name", c.config.Name)

	return e.val, true
}

// State returns the load state for key.
//
// An expired entry still reports Success; expiry is only visible through
// IsExpired, which drives reloads, not what renderers show.
func (c *Cache) State(key string) (State, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		return 0, false
	}

	return e.state, true
}

// Err returns the error of the last failed load, nil otherwise.
func (c *Cache) Err(key string) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok || e.state != Failed {
		return nil
	}

	return e.err
}

// IsExpired reports whether key needs a (re)load: the key is absent, its
// last load failed, or the stored value is past its TTL. A NeverExpires
// value does not expire.
func (c *Cache) IsExpired(key string) bool {
	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		return true
	}

	return e.expired(now)
}

// Put unconditionally replaces the entry for key with a fresh value.
//
// Any load in flight for the key is detached, its result will not land in
// the cache.
func (c *Cache) Put(ctx context.Context, key string, val interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{state: Success, val: val, loadedAt: c.now(), ttl: ttl}
	c.mu.Unlock()

	c.stat.Add(ctx, MetricWrite, 1, "name", c.config.Name)
	c.log.Debug(ctx, "wrote to cache", "name", c.config.Name, "key", key, "value", val, "ttl", ttl)

	c.dirty.MarkDirty()
}

// SetError unconditionally replaces the entry for key with a failed one.
//
// A failed entry is never served as a hit, the next GetOrStartLoad for
// the key starts a new load.
func (c *Cache) SetError(ctx context.Context, key string, err error) {
	c.mu.Lock()
	c.entries[key] = entry{state: Failed, err: err}
	c.mu.Unlock()

	c.stat.Add(ctx, MetricFailed, 1, "name", c.config.Name)
	c.log.Debug(ctx, "cached load failure", "name", c.config.Name, "key", key, "error", err)

	c.dirty.MarkDirty()
}

// Invalidate forces key to read as expired without discarding its value.
//
// The value stays readable via Get until a revalidation triggered by the
// next GetOrStartLoad replaces it. Invalidating an absent key changes
// nothing but still notifies the dirty sink.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.state == Success && e.ttl != NeverExpires {
		e.loadedAt = time.Time{} // Backdated, Get keeps serving the value.
		c.entries[key] = e
	}
	c.mu.Unlock()

	c.stat.Add(ctx, MetricExpired, 1, "name", c.config.Name)
	c.log.Debug(ctx, "invalidated cache key", "name", c.config.Name, "key", key)

	c.dirty.MarkDirty()
}

// InvalidateAll backdates every stored value that can expire.
//
// Revalidation starts as consumers ask for keys again; the default
// executor can cap how many loads run at once, see NewGoExecutor.
func (c *Cache) InvalidateAll(ctx context.Context) {
	n := 0

	c.mu.Lock()
	for k, e := range c.entries {
		if e.state == Success && e.ttl != NeverExpires {
			e.loadedAt = time.Time{}
			c.entries[k] = e
			n++
		}
	}
	c.mu.Unlock()

	c.stat.Add(ctx, MetricExpired, float64(n), "name", c.config.Name)
	c.log.Debug(ctx, "invalidated all cache keys", "name", c.config.Name, "count", n)

	c.dirty.MarkDirty()
}

// ExpiredAny reports whether any stored value is past its TTL.
//
// The scheduler uses it to turn TTL expiry into a repaint trigger even
// without an explicit Invalidate call.
func (c *Cache) ExpiredAny() bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.state == Success && e.ttl != NeverExpires && now.After(e.loadedAt.Add(e.ttl)) {
			return true
		}
	}

	return false
}

// Len returns number of entries in cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Clear drops every entry, called once when the viewer session ends.
//
// Results of loads still in flight are discarded on completion.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	c.mu.Unlock()

	c.stat.Set(ctx, MetricItems, 0, "name", c.config.Name)
	c.log.Debug(ctx, "cleared cache", "name", c.config.Name, "count", n)
}

// GetOrStartLoad returns a Load for key, invoking the loader only when no
// usable result exists.
//
// A single critical section over the entry decides what happens, so two
// callers can never both observe "no load in flight" and start one:
//
//   - a load is already in flight: its Load is returned, the loader is
//     not invoked again;
//   - the stored value is fresh: an already resolved Load is returned;
//   - the stored value is expired: it stays readable while exactly one
//     background revalidation starts;
//   - otherwise (absent or failed): a new load starts and the entry
//     becomes Loading.
//
// The loader runs on the Executor, never under the cache lock and never
// before the slot transition is published, so a loader that reads the
// same key synchronously joins its own load instead of deadlocking.
// Loader failures are captured into the entry, observable via Err, and
// are never returned synchronously.
func (c *Cache) GetOrStartLoad(ctx context.Context, key string, loader Loader, ttl time.Duration) *Load {
	if loader == nil {
		return resolvedLoad(nil, ErrNoLoader)
	}

	now := c.now()

	c.mu.Lock()

	e, ok := c.entries[key]

	// An in-flight load, initial or background, is shared as is.
	if ok && e.load != nil {
		c.mu.Unlock()

		c.log.Debug(ctx, "joining load in flight", "name", c.config.Name, "key", key)

		return e.load
	}

	// Valid hit.
	if ok && e.state == Success && !e.expired(now) && !SkipRead(ctx) {
		c.mu.Unlock()

		c.stat.Add(ctx, MetricHit, 1, "name", c.config.Name)

		return resolvedLoad(e.val, nil)
	}

	l := newLoad()

	if ok && e.state == Success {
		// Stale value stays visible during revalidation.
		e.load = l
		c.entries[key] = e
	} else {
		// Absent or failed, no usable value.
		c.entries[key] = entry{state: Loading, load: l}
	}

	c.mu.Unlock()

	c.stat.Add(ctx, MetricBuild, 1, "name", c.config.Name)
	c.log.Debug(ctx, "building cache value", "name", c.config.Name, "key", key)

	c.exec.Go(ctx, func(ctx context.Context) {
		val, err := runLoader(ctx, loader)
		if err != nil {
			c.completeError(ctx, key, l, err)

			return
		}

		c.completeLoad(ctx, key, l, val, ttl)
	})

	return l
}

// runLoader invokes the loader, converting a panic into an error so a
// misbehaving loader surfaces via Err instead of killing its worker.
func runLoader(ctx context.Context, loader Loader) (val interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader panic: %v", r)
		}
	}()

	return loader(ctx)
}

// completeLoad writes a finished load back with Put semantics, unless the
// slot was superseded by Clear or an explicit Put in the meantime.
func (c *Cache) completeLoad(ctx context.Context, key string, l *Load, val interface{}, ttl time.Duration) {
	c.mu.Lock()
	e, ok := c.entries[key]
	superseded := !ok || e.load != l
	if !superseded {
		c.entries[key] = entry{state: Success, val: val, loadedAt: c.now(), ttl: ttl}
	}
	c.mu.Unlock()

	l.complete(val, nil)

	if superseded {
		c.log.Debug(ctx, "discarding superseded load result", "name", c.config.Name, "key", key)

		return
	}

	c.stat.Add(ctx, MetricWrite, 1, "name", c.config.Name)
	c.log.Debug(ctx, "wrote to cache", "name", c.config.Name, "key", key, "value", val, "ttl", ttl)

	c.dirty.MarkDirty()
}

// completeError writes a failed load back with SetError semantics, unless
// the slot was superseded.
func (c *Cache) completeError(ctx context.Context, key string, l *Load, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	superseded := !ok || e.load != l
	if !superseded {
		c.entries[key] = entry{state: Failed, err: err}
	}
	c.mu.Unlock()

	l.complete(nil, err)

	if superseded {
		c.log.Debug(ctx, "discarding superseded load failure", "name", c.config.Name, "key", key)

		return
	}

	c.stat.Add(ctx, MetricFailed, 1, "name", c.config.Name)
	c.log.Warn(ctx, "failed to load cache value", "name", c.config.Name, "key", key, "error", err)

	c.dirty.MarkDirty()
}
