package ratelimit_test

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/technofatty/technofatty/internal/cache"
	"github.com/technofatty/technofatty/internal/ratelimit"
)

// BenchmarkCheckAndIncrement benchmarks one key hammered serially
func BenchmarkCheckAndIncrement(b *testing.B) {
	limiter := ratelimit.New(cache.NewMemoryStore())
	ctx := context.Background()
	key := ratelimit.NewsletterIPKey("203.0.113.7")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		limiter.CheckAndIncrement(ctx, key, 5, time.Hour)
	}
}

// BenchmarkCheckAndIncrementParallel benchmarks many clients sharing the store
func BenchmarkCheckAndIncrementParallel(b *testing.B) {
	limiter := ratelimit.New(cache.NewMemoryStore())
	ctx := context.Background()
	var client atomic.Int64

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		key := ratelimit.ContactKey("198.51.100."+strconv.FormatInt(client.Add(1), 10), "reader@example.com")
		for pb.Next() {
			limiter.CheckAndIncrement(ctx, key, 5, time.Hour)
		}
	})
}
