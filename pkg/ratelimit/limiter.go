// Package ratelimit throttles chat commands per author.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	Enabled           bool
	CommandsPerMinute int
}

func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		CommandsPerMinute: 30,
	}
}

// Limiter holds one token bucket per author key. Each bucket allows a
// burst of CommandsPerMinute and refills at the same rate per minute.
type Limiter struct {
	config  Config
	buckets sync.Map // map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	lim *rate.Limiter

	mu       sync.Mutex
	lastSeen time.Time
}

func NewLimiter(config Config) *Limiter {
	return &Limiter{config: config, now: time.Now}
}

func (l *Limiter) enabled() bool {
	return l != nil && l.config.Enabled && l.config.CommandsPerMinute > 0
}

// Allow reports whether key may run one more command now.
func (l *Limiter) Allow(key string) bool {
	if !l.enabled() {
		return true
	}
	now := l.now()
	return l.bucketFor(key, now).lim.AllowN(now, 1)
}

func (l *Limiter) bucketFor(key string, now time.Time) *bucket {
	if cached, ok := l.buckets.Load(key); ok {
		b := cached.(*bucket)
		b.touch(now)
		return b
	}

	perMinute := l.config.CommandsPerMinute
	newB := &bucket{
		lim:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		lastSeen: now,
	}
	actual, _ := l.buckets.LoadOrStore(key, newB)
	return actual.(*bucket)
}

func (b *bucket) touch(now time.Time) {
	b.mu.Lock()
	b.lastSeen = now
	b.mu.Unlock()
}

// Cleanup drops buckets idle for longer than maxAge.
func (l *Limiter) Cleanup(maxAge time.Duration) {
	now := l.now()
	l.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		idle := now.Sub(b.lastSeen)
		b.mu.Unlock()
		if idle > maxAge {
			l.buckets.Delete(key)
		}
		return true
	})
}

// Run calls Cleanup every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup(maxAge)
		}
	}
}

func (l *Limiter) size() int {
	n := 0
	l.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
