package viewcache

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/puzpuzpuz/xsync"
)

// SchedulerConfig is optional configuration for NewScheduler.
type SchedulerConfig struct {
	// Name is added to logs and stats.
	Name string

	// Ticker is the host scheduling primitive, IntervalTicker by default.
	Ticker Ticker

	// Logger collects messages with context.
	Logger ctxd.Logger

	// Stats tracks stats.
	Stats stats.Tracker

	// Now is a time source override for tests, time.Now by default.
	Now func() time.Time
}

// Scheduler repaints active viewers on a periodic tick.
//
// A viewer is repainted when its dirty flag is set, when its fixed
// refresh interval elapsed, or when any of its cached values is past its
// TTL. A failing repaint is confined to its viewer and never aborts the
// tick for others. Viewers found offline at tick time are removed from
// the active set as a side effect of the tick.
type Scheduler struct {
	viewers *xsync.Map

	mu   sync.Mutex
	stop func()

	config SchedulerConfig
	ticker Ticker
	log    ctxd.Logger
	stat   stats.Tracker
	now    func() time.Time
}

// NewScheduler creates a Scheduler with optional configuration.
func NewScheduler(cfg ...SchedulerConfig) *Scheduler {
	config := SchedulerConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	s := &Scheduler{
		viewers: xsync.NewMap(),
		config:  config,
		ticker:  config.Ticker,
		log:     config.Logger,
		stat:    config.Stats,
		now:     config.Now,
	}

	if s.ticker == nil {
		s.ticker = IntervalTicker{}
	}

	if s.log == nil {
		s.log = ctxd.NoOpLogger{}
	}

	if s.stat == nil {
		s.stat = stats.NoOp{}
	}

	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Register adds a viewer to the active set.
func (s *Scheduler) Register(id string, v *Viewer) {
	v.lastRefresh = s.now()
	s.viewers.Store(id, v)
}

// Deregister removes a viewer, e.g. when its session closes.
func (s *Scheduler) Deregister(id string) {
	s.viewers.Delete(id)
}

// Start begins ticking, it is idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}

	s.stop = s.ticker.Repeat(func() {
		s.tick(context.Background())
	})
}

// Stop halts ticking, it is idempotent. Registered viewers are kept.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return
	}

	s.stop()
	s.stop = nil
}

// tick walks the active viewers once.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	s.viewers.Range(func(id string, val interface{}) bool {
		v := val.(*Viewer)

		if !v.online() {
			// Lazy cleanup of disconnected viewers.
			s.viewers.Delete(id)
			s.stat.Add(ctx, MetricViewerDropped, 1, "name", s.config.Name)
			s.log.Debug(ctx, "dropped offline viewer", "name", s.config.Name, "viewer", id)

			return true
		}

		dirty := v.consumeDirty()
		interval := v.intervalElapsed(now)
		expired := v.Cache != nil && v.Cache.ExpiredAny()

		if !dirty && !interval && !expired {
			return true
		}

		v.lastRefresh = now
		s.repaint(ctx, id, v)

		return true
	})
}

// repaint runs one viewer's render, confining its failure.
func (s *Scheduler) repaint(ctx context.Context, id string, v *Viewer) {
	defer func() {
		if r := recover(); r != nil {
			s.stat.Add(ctx, MetricRepaintFailed, 1, "name", s.config.Name)
			s.log.Error(ctx, "repaint panicked", "name", s.config.Name, "viewer", id, "panic", r)
		}
	}()

	if v.Render == nil {
		return
	}

	if err := v.Render(ctx); err != nil {
		s.stat.Add(ctx, MetricRepaintFailed, 1, "name", s.config.Name)
		s.log.Error(ctx, "repaint failed", "name", s.config.Name, "viewer", id, "error", err)

		return
	}

	s.stat.Add(ctx, MetricRepaint, 1, "name", s.config.Name)
}
