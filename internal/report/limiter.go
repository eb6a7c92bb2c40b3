package report

import (
	"net/netip"
	"sync"
	"sync/atomic"
	"time"
)

// RateLimiter caps reported decisions per source IP so that one noisy
// sender cannot flood a sink. Counts reset when the window rolls over.
type RateLimiter struct {
	mu           sync.Mutex
	current      map[netip.Addr]*atomic.Int64 // source IP → decisions in current window
	windowStart  time.Time
	windowSize   time.Duration
	maxPerWindow int64

	suppressed atomic.Int64
}

// RateLimiterConfig configures per-source decision rate limiting.
type RateLimiterConfig struct {
	MaxPerSource int           // max decisions per source IP per window (0 = disabled)
	Window       time.Duration // window size (default 10s)
}

// NewRateLimiter creates a rate limiter. Returns nil if disabled
// (MaxPerSource <= 0).
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.MaxPerSource <= 0 {
		return nil
	}
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Second
	}
	return &RateLimiter{
		current:      make(map[netip.Addr]*atomic.Int64),
		windowStart:  time.Now(),
		windowSize:   cfg.Window,
		maxPerWindow: int64(cfg.MaxPerSource),
	}
}

// Allow checks whether a decision for the given source IP may still be
// reported in the current window.
func (l *RateLimiter) Allow(src netip.Addr, now time.Time) bool {
	l.mu.Lock()

	if now.Sub(l.windowStart) >= l.windowSize {
		l.current = make(map[netip.Addr]*atomic.Int64)
		l.windowStart = now
	}

	counter, exists := l.current[src]
	if !exists {
		counter = &atomic.Int64{}
		l.current[src] = counter
	}
	l.mu.Unlock()

	count := counter.Add(1)
	if count > l.maxPerWindow {
		l.suppressed.Add(1)
		return false
	}
	return true
}

// Suppressed returns the total number of suppressed decisions.
func (l *RateLimiter) Suppressed() int64 {
	return l.suppressed.Load()
}

// ActiveSources returns the number of distinct source IPs in the current
// window.
func (l *RateLimiter) ActiveSources() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.current)
}
