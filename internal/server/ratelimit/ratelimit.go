// Package ratelimit provides per-client request limiting with a token
// bucket per client and endpoint rule.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket refilled continuously at refillRate tokens per
// second.
type bucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

func newBucket(capacity int, refillRate float64) *bucket {
	now := time.Now()
	return &bucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now,
		lastAccess: now,
	}
}

func (b *bucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
	b.lastAccess = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// retryAfter estimates how long until one token is available.
func (b *bucket) retryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tokens >= 1 {
		return 0
	}
	need := 1 - b.tokens
	return time.Duration(need / b.refillRate * float64(time.Second))
}

// Limiter holds one bucket per client and matched rule.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	stop    chan struct{}
}

// NewLimiter builds a limiter from the configuration. A background sweep
// drops buckets idle for more than an hour.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		config:  config,
		stop:    make(chan struct{}),
	}
	if config.Enabled {
		go l.sweep()
	}
	return l
}

// Allow reports whether a request from clientID to the given path and
// method may proceed, with a retry-after hint when it may not.
func (l *Limiter) Allow(clientID, path, method string) (bool, time.Duration) {
	if !l.config.Enabled {
		return true, 0
	}
	rule := l.config.match(path, method)
	if rule == nil || rule.Limit <= 0 {
		return true, 0
	}

	key := clientID + ":" + rule.Path + ":" + rule.Method
	b := l.getBucket(key, rule)
	if b.allow() {
		return true, 0
	}
	return false, b.retryAfter()
}

func (l *Limiter) getBucket(key string, rule *Rule) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	burst := rule.Burst
	if burst <= 0 {
		burst = rule.Limit
	}
	b := newBucket(burst, float64(rule.Limit)/rule.Window.Seconds())
	l.buckets[key] = b
	return b
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-time.Hour)
			l.mu.Lock()
			for key, b := range l.buckets {
				b.mu.Lock()
				idle := b.lastAccess.Before(cutoff)
				b.mu.Unlock()
				if idle {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Stop halts the background sweep.
func (l *Limiter) Stop() {
	close(l.stop)
}
