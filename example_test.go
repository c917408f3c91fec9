package viewcache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/vearutop/viewcache"
)

func ExampleNew() {
	// Create cache instance when the viewer's session opens.
	c := viewcache.New(viewcache.Config{
		Name:   "dogs",
		Logger: &ctxd.LoggerMock{},
		Stats:  &stats.TrackerMock{},

		// Synchronous executor keeps the example deterministic; the
		// default dispatches loaders to worker goroutines.
		Executor: viewcache.SyncExecutor{},
	})

	// Use context if available.
	ctx := context.TODO()

	// Drive loading from the renderer; concurrent asks for the same key
	// share a single loader run.
	l := c.GetOrStartLoad(ctx, "stats", func(ctx context.Context) (interface{}, error) {
		return 42, nil // A database lookup in real life.
	}, 30*time.Second)

	val, _ := l.Wait(ctx)
	fmt.Println("value:", val)

	state, _ := c.State("stats")
	fmt.Println("state:", state)

	// Force expiry; the stale value keeps serving until revalidated.
	c.Invalidate(ctx, "stats")

	val, _ = c.Get(ctx, "stats")
	fmt.Println("stale value:", val, "expired:", c.IsExpired("stats"))

	// Output:
	// value: 42
	// state: success
	// stale value: 42 expired: true
}

func ExampleGate_Open() {
	ctx := context.TODO()

	v := &viewcache.Viewer{Cache: viewcache.New(viewcache.Config{
		Executor: viewcache.SyncExecutor{},
	})}

	// Kick off the loads the first paint depends on.
	v.Cache.GetOrStartLoad(ctx, "profile", func(ctx context.Context) (interface{}, error) {
		return "alex", nil
	}, time.Minute)

	g := viewcache.NewGate(viewcache.GateConfig{
		Name:    "open",
		MaxWait: time.Second,
	})

	res := g.Open(ctx, v, []string{"profile"}, func(ctx context.Context) {
		fmt.Println("first paint")
	})

	r := <-res
	fmt.Println("outcome:", r.Outcome, "succeeded:", r.Succeeded)

	// Output:
	// first paint
	// outcome: ready succeeded: [profile]
}
