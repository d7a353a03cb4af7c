package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closeLimiter(t *testing.T, m *MemoryLimiter) {
	t.Helper()
	require.NoError(t, m.Close())
}

// backdate rewrites a bucket's last-touch time, simulating idle periods
// without sleeping through them.
func backdate(m *MemoryLimiter, key string, age time.Duration) {
	s := m.shard(key)
	s.mu.Lock()
	s.buckets[key].updated = time.Now().Add(-age)
	s.mu.Unlock()
}

func bucketExists(m *MemoryLimiter, key string) bool {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buckets[key]
	return ok
}

func TestMemoryLimiterAllowUnderBurst(t *testing.T) {
	m := NewMemoryLimiter(10, 5)
	defer closeLimiter(t, m)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ok, err := m.Allow(ctx, "user:u1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should fit in the burst", i)
	}
}

func TestMemoryLimiterDenyAfterBurst(t *testing.T) {
	m := NewMemoryLimiter(10, 3)
	defer closeLimiter(t, m)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, err := m.Allow(ctx, "user:u1")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := m.Allow(ctx, "user:u1")
	require.NoError(t, err)
	assert.False(t, ok, "burst exhausted, fourth request must be denied")
}

func TestMemoryLimiterTokenRefill(t *testing.T) {
	// 1000 tokens/s refills one token per millisecond. Exhaust burst 2,
	// then a few milliseconds of waiting buys the next request back.
	m := NewMemoryLimiter(1000, 2)
	defer closeLimiter(t, m)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, _ = m.Allow(ctx, "user:u1")
	}
	ok, _ := m.Allow(ctx, "user:u1")
	require.False(t, ok, "should be denied right after exhausting the burst")

	time.Sleep(5 * time.Millisecond)

	ok, err := m.Allow(ctx, "user:u1")
	require.NoError(t, err)
	assert.True(t, ok, "refill should have restored at least one token")
}

func TestMemoryLimiterIndependentKeys(t *testing.T) {
	m := NewMemoryLimiter(10, 1)
	defer closeLimiter(t, m)

	ctx := context.Background()
	ok, _ := m.Allow(ctx, "ip:10.0.0.1")
	require.True(t, ok)
	ok, _ = m.Allow(ctx, "ip:10.0.0.1")
	require.False(t, ok)

	// A different client is untouched by the first one's exhaustion.
	ok, _ = m.Allow(ctx, "ip:10.0.0.2")
	assert.True(t, ok)
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	m := NewMemoryLimiter(100, 50)
	defer closeLimiter(t, m)

	ctx := context.Background()
	var wg sync.WaitGroup
	allowed := make([]int, 10)

	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				ok, err := m.Allow(ctx, "user:shared")
				if err != nil {
					t.Errorf("goroutine %d: Allow error: %v", idx, err)
					return
				}
				if ok {
					allowed[idx]++
				}
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for _, c := range allowed {
		total += c
	}
	// 100 requests against burst 50: no more than the burst may pass.
	assert.LessOrEqual(t, total, 50)
	assert.GreaterOrEqual(t, total, 1)
}

func TestMemoryLimiterDropsIdleKeys(t *testing.T) {
	m := NewMemoryLimiter(10, 5)
	defer closeLimiter(t, m)

	ctx := context.Background()
	_, _ = m.Allow(ctx, "user:stale")
	_, _ = m.Allow(ctx, "user:active")

	backdate(m, "user:stale", idleTTL+5*time.Minute)
	m.dropIdle(time.Now().Add(-idleTTL))

	assert.False(t, bucketExists(m, "user:stale"), "idle bucket should be dropped")
	assert.True(t, bucketExists(m, "user:active"), "recently used bucket should survive")
}

func TestMemoryLimiterSweepCoversAllShards(t *testing.T) {
	m := NewMemoryLimiter(10, 5)
	defer closeLimiter(t, m)

	ctx := context.Background()
	keys := make([]string, 64)
	for i := range keys {
		keys[i] = fmt.Sprintf("ip:198.51.100.%d", i)
		_, _ = m.Allow(ctx, keys[i])
		backdate(m, keys[i], idleTTL+time.Minute)
	}

	m.dropIdle(time.Now().Add(-idleTTL))

	for _, key := range keys {
		assert.False(t, bucketExists(m, key), "key %s should be evicted", key)
	}
}

func TestMemoryLimiterCloseIdempotent(t *testing.T) {
	m := NewMemoryLimiter(10, 5)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestNoopLimiterAlwaysAllows(t *testing.T) {
	var l NoopLimiter
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		ok, err := l.Allow(ctx, "anything")
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, l.Close())
}

func TestMemoryLimiterTokensCapAtBurst(t *testing.T) {
	// A long idle stretch must not bank more than the burst.
	m := NewMemoryLimiter(1000, 3)
	defer closeLimiter(t, m)

	ctx := context.Background()
	_, _ = m.Allow(ctx, "user:u1")
	backdate(m, "user:u1", time.Hour)

	for i := 0; i < 3; i++ {
		ok, _ := m.Allow(ctx, "user:u1")
		require.True(t, ok, "request %d should pass after long idle", i)
	}
	ok, _ := m.Allow(ctx, "user:u1")
	assert.False(t, ok, "banked tokens must cap at the burst size")
}
