// Package viewcache bridges slow asynchronous data sources and a
// single-threaded, tick-driven UI loop.
// Focused on race-free caching of per-viewer panel data without ever
// blocking the render thread.
//
// Features:
//
//   - Per-viewer cache of async results with TTL and stale-while-revalidate.
//   - Single-flight coordination, at most one loader run per key at a time.
//   - Invalidation keeps stale values readable until revalidation lands.
//   - Loader failures are captured into the entry, never thrown at callers.
//   - Tick scheduler repaints on dirty flag, fixed interval or TTL expiry.
//   - Repaint failures are confined to the offending viewer.
//   - Initial-load gate defers first paint until data is ready or a deadline passes.
//   - Host scheduling, loader dispatch and render-thread hand-off are injectable.
//   - Allows logging, stats collection.
package viewcache
