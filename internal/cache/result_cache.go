package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/crosslens/crosslens-go/internal/analytics"
)

// Result is the caller-facing envelope around a cached payload. The stale
// flag and computation timestamp are part of the UI-facing freshness
// contract and must be preserved by callers.
type Result struct {
	Payload    json.RawMessage `json:"payload"`
	ComputedAt time.Time       `json:"computed_at"`
	Stale      bool            `json:"stale"`
}

// Stats tracks hit/miss counters for one cache category.
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	StaleServed int64     `json:"stale_served"`
	Errors      int64     `json:"errors"`
	HitRate     float64   `json:"hit_rate"`
	LastUpdated time.Time `json:"last_updated"`
}

// ResultCache memoizes expensive correlation and forecast computations with
// single-flight semantics: concurrent requests for one key share a single
// execution of the compute function. On TTL expiry the next call triggers
// exactly one recomputation; if that fails, an expired entry inside the
// retention window is served flagged stale.
type ResultCache struct {
	store  Store
	group  singleflight.Group
	logger *logrus.Logger

	mu    sync.RWMutex
	stats map[string]*Stats
}

// NewResultCache creates a result cache over the given backend.
func NewResultCache(store Store, logger *logrus.Logger) *ResultCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &ResultCache{
		store:  store,
		logger: logger,
		stats:  make(map[string]*Stats),
	}
}

// GetOrCompute returns the cached result for key when fresh, otherwise runs
// compute once across concurrent callers and stores its output. The caller's
// context bounds only its own wait: an in-flight computation keeps running so
// other waiters and the cache still benefit, and the in-flight marker is
// always released. A deadline that elapses first surfaces as
// ComputationTimeoutError.
func (c *ResultCache) GetOrCompute(ctx context.Context, category string, key string, ttl time.Duration, compute func(context.Context) (interface{}, error)) (*Result, error) {
	started := time.Now()

	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache backend read failed")
		found = false
	}
	if found {
		if entry.Key != key {
			// Never serve a payload under the wrong key.
			_ = c.store.Delete(ctx, key)
			c.record(category, func(s *Stats) { s.Errors++ })
			return nil, &analytics.CacheCorruptionError{Key: key, FoundKey: entry.Key}
		}
		if entry.Fresh(time.Now()) {
			c.record(category, func(s *Stats) { s.Hits++ })
			return &Result{Payload: entry.Payload, ComputedAt: entry.ComputedAt, Stale: false}, nil
		}
	}
	c.record(category, func(s *Stats) { s.Misses++ })

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Detach from the first caller so one caller's deadline cannot
		// abort a computation other waiters share.
		return c.refresh(context.WithoutCancel(ctx), key, ttl, compute)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			if found {
				// Graceful degradation: serve the expired entry.
				c.record(category, func(s *Stats) { s.StaleServed++ })
				c.logger.WithError(res.Err).WithField("key", key).Warn("Recomputation failed, serving stale entry")
				return &Result{Payload: entry.Payload, ComputedAt: entry.ComputedAt, Stale: true}, nil
			}
			c.record(category, func(s *Stats) { s.Errors++ })
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	case <-ctx.Done():
		c.record(category, func(s *Stats) { s.Errors++ })
		return nil, &analytics.ComputationTimeoutError{Operation: category, Elapsed: time.Since(started)}
	}
}

func (c *ResultCache) refresh(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (interface{}, error)) (*Result, error) {
	// A concurrent flight may have refreshed the entry while this caller
	// waited on the flight group.
	if entry, found, err := c.store.Get(ctx, key); err == nil && found && entry.Key == key && entry.Fresh(time.Now()) {
		return &Result{Payload: entry.Payload, ComputedAt: entry.ComputedAt, Stale: false}, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Key:        key,
		Payload:    payload,
		ComputedAt: time.Now(),
		TTL:        ttl,
	}
	if err := c.store.Set(ctx, entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache backend write failed")
	}
	return &Result{Payload: entry.Payload, ComputedAt: entry.ComputedAt, Stale: false}, nil
}

// Invalidate drops the entry for key and forgets any pending flight, forcing
// the next call to recompute. Used when computation parameters change.
func (c *ResultCache) Invalidate(ctx context.Context, key string) error {
	c.group.Forget(key)
	return c.store.Delete(ctx, key)
}

// GetStats returns a snapshot of the per-category counters.
func (c *ResultCache) GetStats() map[string]Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Stats, len(c.stats))
	for category, s := range c.stats {
		out[category] = *s
	}
	return out
}

func (c *ResultCache) record(category string, update func(*Stats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats[category]
	if s == nil {
		s = &Stats{}
		c.stats[category] = s
	}
	update(s)
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	s.LastUpdated = time.Now()
}
