// Package ratelimit provides a keyed rate limiter using the token bucket algorithm.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// staleAfter is how long a key can sit unused before its limiter is evicted.
const staleAfter = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent token bucket. Keys are
// client addresses, so idle entries are evicted to bound memory.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new keyed rate limiter.
// rps: requests per second allowed.
// burst: maximum burst size (tokens available immediately).
func New(rps float64, burst int) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}

	go krl.cleanupLoop()

	return krl
}

// Allow checks if a request for the given key should be allowed.
// Returns immediately without blocking.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	krl.mu.Lock()
	e, exists := krl.entries[key]
	if !exists {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.entries[key] = e
	}
	e.lastSeen = time.Now()
	krl.mu.Unlock()

	return e.limiter.Allow()
}

// Stop shuts down the cleanup goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.evictStale(time.Now())
		}
	}
}

func (krl *KeyedRateLimiter) evictStale(now time.Time) {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	for key, e := range krl.entries {
		if now.Sub(e.lastSeen) > staleAfter {
			delete(krl.entries, key)
		}
	}
}
