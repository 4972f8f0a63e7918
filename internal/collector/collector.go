package collector

import (
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"LevelSentinel/internal/model"
)

// Defaults tuned to the provider's refresh cadence.
const (
	DefaultTTL          = 95 * time.Second
	DefaultRateInterval = time.Second
	DefaultMaxAttempts  = 3
)

// defaultRetryDelays is the backoff ladder between fetch attempts. With
// three attempts only the first two delays are ever consumed.
var defaultRetryDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

// retryDelay picks the ladder entry for the i-th retry, holding the
// last entry when the ladder is shorter than the attempt bound.
func retryDelay(delays []time.Duration, i int) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	if i >= len(delays) {
		i = len(delays) - 1
	}
	return delays[i]
}

type cacheKey struct {
	Symbol   string
	Interval string
}

func (k cacheKey) String() string { return k.Symbol + "_" + k.Interval }

// Collector owns the TTL cache, the last-known-good fallback map, and
// the rate-limited retrying fetch path. It is the only component that
// talks to the provider or blocks; everything downstream is a pure
// function over the immutable series it hands out.
type Collector struct {
	fetcher     Fetcher
	ttl         time.Duration
	maxAttempts int
	retryDelays []time.Duration
	now         func() time.Time
	sleep       func(time.Duration)
	limiter     *rateLimiter
	store       *Store // optional persisted fallback, may be nil

	mu       sync.Mutex
	cache    map[cacheKey]model.BarSeries
	fallback map[cacheKey]model.BarSeries

	group singleflight.Group
}

// Option configures a Collector.
type Option func(*Collector)

// WithTTL overrides the cache time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Collector) { c.ttl = ttl }
}

// WithClock injects the time source and sleep function, letting tests
// run the retry and rate-limit paths without real waits.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(c *Collector) {
		c.now = now
		c.sleep = sleep
	}
}

// WithRetryDelays overrides the backoff ladder.
func WithRetryDelays(delays []time.Duration) Option {
	return func(c *Collector) { c.retryDelays = delays }
}

// WithMaxAttempts overrides the total provider attempts per fetch.
func WithMaxAttempts(n int) Option {
	return func(c *Collector) { c.maxAttempts = n }
}

// WithRateInterval overrides the minimum per-symbol request spacing.
func WithRateInterval(d time.Duration) Option {
	return func(c *Collector) { c.limiter.interval = d }
}

// WithStore attaches a persisted fallback store for cross-process warm
// starts.
func WithStore(s *Store) Option {
	return func(c *Collector) { c.store = s }
}

// New creates a Collector around the given fetcher.
func New(fetcher Fetcher, opts ...Option) *Collector {
	c := &Collector{
		fetcher:     fetcher,
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		retryDelays: defaultRetryDelays,
		now:         time.Now,
		sleep:       time.Sleep,
		cache:       make(map[cacheKey]model.BarSeries),
		fallback:    make(map[cacheKey]model.BarSeries),
	}
	c.limiter = newRateLimiter(DefaultRateInterval, time.Now, time.Sleep)
	for _, opt := range opts {
		opt(c)
	}
	// Keep the limiter on the same injected clock.
	c.limiter.now = c.now
	c.limiter.sleep = c.sleep
	return c
}

// Fetch returns the bar series for (symbol, interval). With useCache it
// serves a non-expired cache entry without I/O; otherwise it fetches
// with retry and backoff, falling back to the last successful series
// when the provider stays down. Callers distinguish stale fallback
// results by the series FetchedAt timestamp.
func (c *Collector) Fetch(symbol, interval string, useCache bool) (model.BarSeries, error) {
	if symbol == "" {
		return model.BarSeries{}, fmt.Errorf("%w: empty symbol", ErrInvalidInput)
	}
	if !SupportedInterval(interval) {
		return model.BarSeries{}, fmt.Errorf("%w: unsupported interval %q", ErrInvalidInput, interval)
	}

	key := cacheKey{Symbol: symbol, Interval: interval}

	if useCache {
		if series, ok := c.cached(key); ok {
			return series, nil
		}
	}

	// Single-flight: concurrent misses for the same key share one fetch.
	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		// A concurrent caller may have refilled the cache while this
		// one waited on the flight group.
		if useCache {
			if series, ok := c.cached(key); ok {
				return series, nil
			}
		}
		return c.fetchWithRetry(key)
	})
	if err != nil {
		return model.BarSeries{}, err
	}
	return v.(model.BarSeries).Clone(), nil
}

// cached returns a copy of a fresh cache entry, purging entries past
// twice the TTL while it holds the lock.
func (c *Collector) cached(key cacheKey) (model.BarSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, s := range c.cache {
		if now.Sub(s.FetchedAt) > 2*c.ttl {
			delete(c.cache, k)
		}
	}

	s, ok := c.cache[key]
	if !ok || now.Sub(s.FetchedAt) > c.ttl {
		return model.BarSeries{}, false
	}
	return s.Clone(), true
}

// fetchWithRetry runs the bounded attempt loop: rate-limited fetch,
// validate, store. Validation failures count as fetch failures. When
// all attempts are spent the fallback entry, if any, is served.
func (c *Collector) fetchWithRetry(key cacheKey) (model.BarSeries, error) {
	attempts := c.maxAttempts
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay(c.retryDelays, attempt-1)
			log.Printf("[WARN] fetch %s %s attempt %d/%d failed: %v, retrying in %s",
				key.Symbol, key.Interval, attempt, attempts, lastErr, delay)
			c.sleep(delay)
		}

		c.limiter.wait(key.Symbol)

		bars, err := c.fetcher.FetchBars(key.Symbol, key.Interval)
		if err != nil {
			lastErr = err
			continue
		}
		bars = normalizeBars(bars)
		if err := validateBars(bars, key.Interval); err != nil {
			lastErr = err
			continue
		}

		series := model.BarSeries{
			Symbol:    key.Symbol,
			Interval:  key.Interval,
			Bars:      bars,
			FetchedAt: c.now(),
		}
		c.admit(key, series)
		return series, nil
	}

	log.Printf("[ERROR] all %d fetch attempts failed for %s %s: %v",
		attempts, key.Symbol, key.Interval, lastErr)

	if series, ok := c.lastGood(key); ok {
		log.Printf("[WARN] serving stale fallback for %s %s (fetched %s)",
			key.Symbol, key.Interval, series.FetchedAt.Format(time.RFC3339))
		return series, nil
	}
	return model.BarSeries{}, fmt.Errorf("%w: %s %s: %v", ErrDataUnavailable, key.Symbol, key.Interval, lastErr)
}

// admit stores a freshly validated series in both maps and, when a
// store is attached, persists the fallback copy.
func (c *Collector) admit(key cacheKey, series model.BarSeries) {
	c.mu.Lock()
	c.cache[key] = series
	c.fallback[key] = series
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(series); err != nil {
			log.Printf("[WARN] persist fallback %s %s: %v", key.Symbol, key.Interval, err)
		}
	}
}

// lastGood returns the fallback series for the key, consulting the
// persisted store when the in-memory map is cold.
func (c *Collector) lastGood(key cacheKey) (model.BarSeries, bool) {
	c.mu.Lock()
	s, ok := c.fallback[key]
	c.mu.Unlock()
	if ok {
		return s.Clone(), true
	}

	if c.store != nil {
		stored, err := c.store.Load(key.Symbol, key.Interval)
		if err == nil && len(stored.Bars) > 0 {
			c.mu.Lock()
			c.fallback[key] = stored
			c.mu.Unlock()
			return stored.Clone(), true
		}
	}
	return model.BarSeries{}, false
}

// CurrentPrice returns the latest traded price, falling back to the
// last close of any cached 1m series when the provider call fails.
func (c *Collector) CurrentPrice(symbol string) (float64, error) {
	if symbol == "" {
		return 0, fmt.Errorf("%w: empty symbol", ErrInvalidInput)
	}

	c.limiter.wait(symbol + "_price")
	price, err := c.fetcher.FetchCurrentPrice(symbol)
	if err == nil {
		return price, nil
	}
	log.Printf("[WARN] current price fetch failed for %s: %v, trying 1m series", symbol, err)

	series, ferr := c.Fetch(symbol, "1m", true)
	if ferr != nil || len(series.Bars) == 0 {
		return 0, fmt.Errorf("%w: current price for %s", ErrDataUnavailable, symbol)
	}
	return series.Bars[len(series.Bars)-1].Close, nil
}

// WarmUp forces a refresh of the given intervals, bypassing the cache.
// Used by the background scheduler; failures are logged, not fatal.
func (c *Collector) WarmUp(symbol string, intervals []string) int {
	ok := 0
	for _, interval := range intervals {
		if _, err := c.Fetch(symbol, interval, false); err != nil {
			log.Printf("[WARN] warm-up %s %s: %v", symbol, interval, err)
			continue
		}
		ok++
	}
	return ok
}
