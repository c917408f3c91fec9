// Package prom exports viewcache stats to Prometheus.
package prom

import (
	"context"
	"sync"

	"github.com/bool64/stats"
	"github.com/prometheus/client_golang/prometheus"
)

// Tracker implements stats.Tracker on Prometheus counters and gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
//
// Metric names arrive as-is (e.g. "cache_hit") and label pairs become
// Prometheus labels. Vectors are created lazily on first use, so a metric
// must keep a stable label set across calls.
type Tracker struct {
	reg prometheus.Registerer

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
}

var _ stats.Tracker = (*Tracker)(nil)

// NewTracker constructs a Prometheus stats tracker registering on reg,
// prometheus.DefaultRegisterer when nil.
func NewTracker(reg prometheus.Registerer) *Tracker {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Tracker{
		reg:      reg,
		counters: make(map[string]*prometheus.CounterVec),
		gauges:   make(map[string]*prometheus.GaugeVec),
	}
}

// Add increments a counter.
func (t *Tracker) Add(_ context.Context, name string, increment float64, labelsAndValues ...string) {
	labels, values := split(labelsAndValues)

	t.mu.Lock()
	cv, ok := t.counters[name]
	if !ok {
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: name}, labels)
		t.reg.MustRegister(cv)
		t.counters[name] = cv
	}
	t.mu.Unlock()

	cv.WithLabelValues(values...).Add(increment)
}

// Set updates a gauge.
func (t *Tracker) Set(_ context.Context, name string, absolute float64, labelsAndValues ...string) {
	labels, values := split(labelsAndValues)

	t.mu.Lock()
	gv, ok := t.gauges[name]
	if !ok {
		gv = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: name}, labels)
		t.reg.MustRegister(gv)
		t.gauges[name] = gv
	}
	t.mu.Unlock()

	gv.WithLabelValues(values...).Set(absolute)
}

func split(labelsAndValues []string) (labels, values []string) {
	for i := 0; i+1 < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
		values = append(values, labelsAndValues[i+1])
	}

	return labels, values
}
