package viewcache_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/bool64/cache"
	pca "github.com/patrickmn/go-cache"
	"github.com/vearutop/viewcache"
)

func Benchmark_GetOrStartLoad(b *testing.B) {
	c := viewcache.New(viewcache.Config{Executor: viewcache.SyncExecutor{}})
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		k := "oneone" + strconv.Itoa(i%10000)
		l := c.GetOrStartLoad(ctx, k, func(ctx context.Context) (interface{}, error) {
			return 123, nil
		}, time.Minute)
		// nolint
		_, _ = l.Wait(ctx)
	}
}

func Benchmark_Get(b *testing.B) {
	c := viewcache.New()
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		c.Put(ctx, "oneone"+strconv.Itoa(i), 123, time.Minute)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		k := "oneone" + strconv.Itoa(i%10000)
		// nolint
		_, _ = c.Get(ctx, k)
	}
}

func Benchmark_Failover(b *testing.B) {
	c := cache.NewFailover(cache.FailoverConfig{}.Use)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		k := "oneone" + strconv.Itoa(i%10000)
		// nolint
		_, _ = c.Get(ctx, []byte(k), func(ctx context.Context) (interface{}, error) {
			return 123, nil
		})
	}
}

func Benchmark_Patrickmn(b *testing.B) {
	c := pca.New(5*time.Minute, 10*time.Minute)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		k := "oneone" + strconv.Itoa(i%10000)

		if i < 10000 {
			c.Set(k, 123, pca.DefaultExpiration)
		}
		// nolint
		_, _ = c.Get(k)
	}
}
