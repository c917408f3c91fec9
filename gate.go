package viewcache

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// GateOutcome tells how an initial-load wait ended.
type GateOutcome int

const (
	// GateReady means every watched key reached a terminal state in time.
	GateReady GateOutcome = iota + 1

	// GateTimeout means the maximum wait elapsed with keys still loading.
	// The session opens anyway with whatever state is available, pending
	// keys may render as placeholders. This is not an error.
	GateTimeout

	// GateAborted means the viewer disconnected while waiting, no paint
	// is attempted and the session cache is dropped.
	GateAborted
)

// String implements fmt.Stringer.
func (o GateOutcome) String() string {
	switch o {
	case GateReady:
		return "ready"
	case GateTimeout:
		return "timeout"
	case GateAborted:
		return "aborted"
	}

	return "unknown"
}

// GateResult is the diagnostic outcome of an initial-load wait.
type GateResult struct {
	Outcome GateOutcome
	Elapsed time.Duration

	// Succeeded and Failed tally watched keys by terminal state.
	Succeeded []string
	Failed    []string

	// Pending lists keys still loading on timeout or disconnect.
	Pending []string
}

// GateConfig is optional configuration for NewGate.
type GateConfig struct {
	// Name is added to logs and stats.
	Name string

	// MaxWait bounds the wait for watched keys, 5s by default.
	MaxWait time.Duration

	// Ticker is the host scheduling primitive, IntervalTicker by default.
	Ticker Ticker

	// Main dispatches onto the single render context, CallerInvoker by
	// default.
	Main Invoker

	// Logger collects messages with context.
	Logger ctxd.Logger

	// Stats tracks stats.
	Stats stats.Tracker

	// Now is a time source override for tests, time.Now by default.
	Now func() time.Time
}

// Gate defers a viewer's first paint until watched cache keys reach a
// terminal state or a bounded wait elapses.
//
// Run Open once per session open, after the loads for the watched keys
// have been started. The gate polls at the host tick cadence and never
// blocks the render thread; a hung loader leaves its key pending while
// the gate times out independently.
type Gate struct {
	config  GateConfig
	maxWait time.Duration
	ticker  Ticker
	main    Invoker
	log     ctxd.Logger
	stat    stats.Tracker
	now     func() time.Time
}

// NewGate creates a Gate with optional configuration.
func NewGate(cfg ...GateConfig) *Gate {
	config := GateConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	g := &Gate{
		config:  config,
		maxWait: config.MaxWait,
		ticker:  config.Ticker,
		main:    config.Main,
		log:     config.Logger,
		stat:    config.Stats,
		now:     config.Now,
	}

	if g.maxWait == 0 {
		g.maxWait = 5 * time.Second
	}

	if g.ticker == nil {
		g.ticker = IntervalTicker{}
	}

	if g.main == nil {
		g.main = CallerInvoker{}
	}

	if g.log == nil {
		g.log = ctxd.NoOpLogger{}
	}

	if g.stat == nil {
		g.stat = stats.NoOp{}
	}

	if g.now == nil {
		g.now = time.Now
	}

	return g
}

// Open polls the viewer's cache until every key in keys is terminal, the
// maximum wait elapses, or the viewer goes offline.
//
// The first check runs immediately, so a gate whose keys are already
// terminal passes without waiting a tick. On GateReady and GateTimeout
// the paint callback is dispatched through the Main invoker, keeping
// render mutation on the host's render context. On GateAborted no paint
// happens and the viewer's cache is cleared.
//
// The returned channel is buffered and delivers exactly one GateResult.
func (g *Gate) Open(ctx context.Context, v *Viewer, keys []string, paint func(ctx context.Context)) <-chan GateResult {
	r := &gateRun{
		g:       g,
		ctx:     ctx,
		viewer:  v,
		keys:    keys,
		paint:   paint,
		started: g.now(),
		res:     make(chan GateResult, 1),
	}

	if !r.settle() {
		r.mu.Lock()
		stop := g.ticker.Repeat(r.poll)
		if r.done {
			// Settled between the first check and ticker registration.
			stop()
		} else {
			r.stop = stop
		}
		r.mu.Unlock()
	}

	return r.res
}

// gateRun is the state of one Open call.
type gateRun struct {
	g      *Gate
	ctx    context.Context
	viewer *Viewer
	keys   []string
	paint  func(ctx context.Context)

	started time.Time
	res     chan GateResult

	mu   sync.Mutex
	done bool
	stop func()
}

func (r *gateRun) poll() {
	r.settle()
}

// settle checks the watched keys once, returns true when the wait ended.
func (r *gateRun) settle() bool {
	r.mu.Lock()

	if r.done {
		r.mu.Unlock()

		return true
	}

	g := r.g
	now := g.now()
	elapsed := now.Sub(r.started)

	var succeeded, failed, pending []string

	for _, k := range r.keys {
		var st State

		ok := false
		if r.viewer.Cache != nil {
			st, ok = r.viewer.Cache.State(k)
		}

		switch {
		case !ok || !st.Terminal():
			pending = append(pending, k)
		case st == Success:
			succeeded = append(succeeded, k)
		default:
			failed = append(failed, k)
		}
	}

	result := GateResult{
		Elapsed:   elapsed,
		Succeeded: succeeded,
		Failed:    failed,
		Pending:   pending,
	}

	switch {
	case !r.viewer.online():
		result.Outcome = GateAborted
	case len(pending) == 0:
		result.Outcome = GateReady
	case elapsed >= g.maxWait:
		result.Outcome = GateTimeout
	default:
		r.mu.Unlock()

		return false
	}

	r.finishLocked(result)

	return true
}

// finishLocked ends the wait, r.mu must be held and is released here.
func (r *gateRun) finishLocked(result GateResult) {
	r.done = true
	stop := r.stop
	r.stop = nil
	r.mu.Unlock()

	if stop != nil {
		stop()
	}

	g := r.g
	ctx := r.ctx

	switch result.Outcome {
	case GateAborted:
		// Viewer is gone, discard what was prepared for it.
		if r.viewer.Cache != nil {
			r.viewer.Cache.Clear(ctx)
		}

		g.stat.Add(ctx, MetricGateAborted, 1, "name", g.config.Name)
		g.log.Debug(ctx, "initial load aborted by disconnect",
			"name", g.config.Name,
			"elapsed", result.Elapsed,
			"pending", result.Pending)

	case GateTimeout:
		g.stat.Add(ctx, MetricGateTimeout, 1, "name", g.config.Name)
		g.log.Warn(ctx, "initial load timed out",
			"name", g.config.Name,
			"elapsed", result.Elapsed,
			"pending", result.Pending)

		g.dispatchPaint(ctx, r.paint)

	default:
		g.stat.Add(ctx, MetricGateReady, 1, "name", g.config.Name)
		g.log.Debug(ctx, "initial load complete",
			"name", g.config.Name,
			"elapsed", result.Elapsed,
			"succeeded", result.Succeeded,
			"failed", result.Failed)

		g.dispatchPaint(ctx, r.paint)
	}

	r.res <- result
}

func (g *Gate) dispatchPaint(ctx context.Context, paint func(ctx context.Context)) {
	if paint == nil {
		return
	}

	g.main.Invoke(func() {
		paint(ctx)
	})
}
