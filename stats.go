package viewcache

// Metric names of tracked stats.
const (
	// MetricHit is a counter of cached value hits.
	MetricHit = "cache_hit"

	// MetricMiss is a counter of reads without a usable value.
	MetricMiss = "cache_miss"

	// MetricExpired is a counter of entries forced to expire by invalidation.
	MetricExpired = "cache_expired"

	// MetricWrite is a counter of values stored in cache.
	MetricWrite = "cache_write"

	// MetricBuild is a counter of loader invocations.
	MetricBuild = "cache_build"

	// MetricFailed is a counter of failed loads.
	MetricFailed = "cache_failed"

	// MetricItems is a gauge of entries in cache.
	MetricItems = "cache_items"

	// MetricRepaint is a counter of viewer repaints performed by the scheduler.
	MetricRepaint = "viewer_repaint"

	// MetricRepaintFailed is a counter of repaints that returned an error or panicked.
	MetricRepaintFailed = "viewer_repaint_failed"

	// MetricViewerDropped is a counter of offline viewers removed at tick time.
	MetricViewerDropped = "viewer_dropped"

	// MetricGateReady is a counter of initial-load waits resolved by completion.
	MetricGateReady = "gate_ready"

	// MetricGateTimeout is a counter of initial-load waits resolved by timeout.
	MetricGateTimeout = "gate_timeout"

	// MetricGateAborted is a counter of initial-load waits aborted by disconnect.
	MetricGateAborted = "gate_aborted"
)
