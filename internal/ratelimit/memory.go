package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// Bucket maps are sharded so a consultation chat burst on one key does not
// serialize against unrelated keys on a single lock.
const bucketShards = 16

const (
	// idleTTL is how long a key survives without traffic. A driver who
	// finished their consultation stops costing memory after this window.
	idleTTL = 10 * time.Minute

	sweepInterval = time.Minute
)

// bucket tracks the remaining allowance for one key.
type bucket struct {
	remaining float64
	updated   time.Time
}

type shard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// MemoryLimiter is an in-process token bucket Limiter, keyed per client IP
// for unauthenticated traffic and per user ID once logged in.
//
// The two knobs map onto the platform's traffic shapes: chat turns in a
// consultation arrive in short bursts while the user types, which the burst
// capacity absorbs; ticket submissions and checkout calls are sustained-rate
// actions, which the refill rate caps. A background sweep drops keys idle
// longer than idleTTL so the bucket map stays proportional to active users.
type MemoryLimiter struct {
	perSecond float64 // refill rate, tokens per second
	capacity  float64 // burst size, tokens per bucket

	shards [bucketShards]shard

	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryLimiter creates a limiter refilling rate tokens per second per
// key, with burst tokens of headroom. Call Close to stop the idle sweep.
func NewMemoryLimiter(rate float64, burst int) *MemoryLimiter {
	m := &MemoryLimiter{
		perSecond: rate,
		capacity:  float64(burst),
		done:      make(chan struct{}),
	}
	for i := range m.shards {
		m.shards[i].buckets = make(map[string]*bucket)
	}
	go m.sweep()
	return m
}

// Allow spends one token from key's bucket. False means the caller should
// answer 429; a brand-new key is always admitted and starts with the rest
// of its burst available.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b, ok := s.buckets[key]
	if !ok {
		s.buckets[key] = &bucket{remaining: m.capacity - 1, updated: now}
		return true, nil
	}

	b.remaining += now.Sub(b.updated).Seconds() * m.perSecond
	if b.remaining > m.capacity {
		b.remaining = m.capacity
	}
	b.updated = now

	if b.remaining < 1 {
		return false, nil
	}
	b.remaining--
	return true, nil
}

// Close stops the idle sweep. Safe to call more than once.
func (m *MemoryLimiter) Close() error {
	m.stopOnce.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryLimiter) shard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &m.shards[h.Sum32()%bucketShards]
}

func (m *MemoryLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.dropIdle(time.Now().Add(-idleTTL))
		}
	}
}

// dropIdle evicts every bucket last touched before cutoff.
func (m *MemoryLimiter) dropIdle(cutoff time.Time) {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for key, b := range s.buckets {
			if b.updated.Before(cutoff) {
				delete(s.buckets, key)
			}
		}
		s.mu.Unlock()
	}
}
