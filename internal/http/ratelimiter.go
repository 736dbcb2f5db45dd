package http

import (
	"sync"
	"time"
)

// callerBucket tracks the remaining token budget for one API caller.
type callerBucket struct {
	tokens   float64
	last     time.Time
	lastSeen time.Time
}

// RateLimiter throttles publish API callers with a token bucket per client IP.
// Publishing fans out into GitHub calls, so the budget is kept deliberately
// small compared to the read-only entry routes it also fronts.
type RateLimiter struct {
	mu         sync.Mutex
	callers    map[string]*callerBucket
	maxTokens  float64
	refillRate float64
	ttl        time.Duration
	now        func() time.Time
}

// NewRateLimiter constructs a rate limiter with the provided settings. Buckets
// idle for longer than ttl are dropped by a background sweep.
func NewRateLimiter(maxTokens int, refillPerSecond float64, ttl time.Duration) *RateLimiter {
	rl := &RateLimiter{
		callers:    make(map[string]*callerBucket),
		maxTokens:  float64(maxTokens),
		refillRate: refillPerSecond,
		ttl:        ttl,
		now:        time.Now,
	}

	if ttl > 0 {
		ticker := time.NewTicker(ttl)
		go func() {
			for range ticker.C {
				rl.pruneStale()
			}
		}()
	}

	return rl
}

// Allow consumes a token for the caller key if its bucket still has budget.
func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.callers[key]
	if !ok {
		bucket = &callerBucket{
			tokens:   rl.maxTokens,
			last:     now,
			lastSeen: now,
		}
		rl.callers[key] = bucket
	}

	elapsed := now.Sub(bucket.last).Seconds()
	if elapsed > 0 {
		bucket.tokens += elapsed * rl.refillRate
		if bucket.tokens > rl.maxTokens {
			bucket.tokens = rl.maxTokens
		}
		bucket.last = now
	}

	if bucket.tokens < 1 {
		bucket.lastSeen = now
		return false
	}

	bucket.tokens -= 1
	bucket.lastSeen = now
	return true
}

func (rl *RateLimiter) pruneStale() {
	if rl.ttl <= 0 {
		return
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, bucket := range rl.callers {
		if now.Sub(bucket.lastSeen) > rl.ttl {
			delete(rl.callers, key)
		}
	}
}
