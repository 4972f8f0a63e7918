package collector

import (
	"sync"
	"time"
)

// rateLimiter enforces a minimum spacing between provider requests per
// key. The clock and sleep functions are injected so tests never wait.
type rateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
	now      func() time.Time
	sleep    func(time.Duration)
}

func newRateLimiter(interval time.Duration, now func() time.Time, sleep func(time.Duration)) *rateLimiter {
	return &rateLimiter{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      now,
		sleep:    sleep,
	}
}

// wait blocks until the per-key spacing has elapsed, then stamps the key.
func (r *rateLimiter) wait(key string) {
	r.mu.Lock()
	prev, ok := r.last[key]
	now := r.now()
	var pause time.Duration
	if ok {
		if elapsed := now.Sub(prev); elapsed < r.interval {
			pause = r.interval - elapsed
		}
	}
	r.last[key] = now.Add(pause)
	r.mu.Unlock()

	if pause > 0 {
		r.sleep(pause)
	}
}
