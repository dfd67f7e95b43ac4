package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslens/crosslens-go/internal/analytics"
)

func newTestCache() *ResultCache {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewResultCache(NewMemoryStore(), logger)
}

func TestGetOrComputeCachesResult(t *testing.T) {
	cache := newTestCache()
	var calls int32

	compute := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return map[string]int{"answer": 42}, nil
	}

	first, err := cache.GetOrCompute(context.Background(), "insights", "k1", time.Minute, compute)
	require.NoError(t, err)
	assert.False(t, first.Stale)

	second, err := cache.GetOrCompute(context.Background(), "insights", "k1", time.Minute, compute)
	require.NoError(t, err)
	assert.False(t, second.Stale)
	assert.Equal(t, first.ComputedAt.Unix(), second.ComputedAt.Unix())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(second.Payload, &decoded))
	assert.Equal(t, 42, decoded["answer"])
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	cache := newTestCache()
	var calls int32

	compute := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return "shared", nil
	}

	const workers = 10
	var wg sync.WaitGroup
	results := make([]*Result, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.GetOrCompute(context.Background(), "insights", "shared-key", time.Minute, compute)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.JSONEq(t, `"shared"`, string(results[i].Payload))
	}
}

func TestGetOrComputeRecomputesAfterTTL(t *testing.T) {
	cache := newTestCache()
	var calls int32

	compute := func(ctx context.Context) (interface{}, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	_, err := cache.GetOrCompute(context.Background(), "insights", "k1", 10*time.Millisecond, compute)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	result, err := cache.GetOrCompute(context.Background(), "insights", "k1", 10*time.Millisecond, compute)
	require.NoError(t, err)
	assert.False(t, result.Stale)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.JSONEq(t, "2", string(result.Payload))
}

func TestGetOrComputeServesStaleOnFailure(t *testing.T) {
	cache := newTestCache()

	_, err := cache.GetOrCompute(context.Background(), "insights", "k1", 10*time.Millisecond, func(ctx context.Context) (interface{}, error) {
		return "original", nil
	})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	result, err := cache.GetOrCompute(context.Background(), "insights", "k1", 10*time.Millisecond, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("upstream unavailable")
	})
	require.NoError(t, err)
	assert.True(t, result.Stale)
	assert.JSONEq(t, `"original"`, string(result.Payload))

	stats := cache.GetStats()["insights"]
	assert.Equal(t, int64(1), stats.StaleServed)
}

func TestGetOrComputePropagatesErrorWithoutStaleEntry(t *testing.T) {
	cache := newTestCache()
	wantErr := errors.New("compute exploded")

	_, err := cache.GetOrCompute(context.Background(), "insights", "k1", time.Minute, func(ctx context.Context) (interface{}, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// The failed flight must be released so a retry can succeed.
	result, err := cache.GetOrCompute(context.Background(), "insights", "k1", time.Minute, func(ctx context.Context) (interface{}, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `"recovered"`, string(result.Payload))
}

func TestGetOrComputeDetectsCorruption(t *testing.T) {
	store := NewMemoryStore()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cache := NewResultCache(store, logger)

	require.NoError(t, store.Set(context.Background(), &Entry{
		Key:        "other-key",
		Payload:    json.RawMessage(`"poisoned"`),
		ComputedAt: time.Now(),
		TTL:        time.Minute,
	}))
	// Plant the entry under a key it does not claim.
	store.mu.Lock()
	store.entries["k1"] = store.entries["other-key"]
	store.mu.Unlock()

	_, err := cache.GetOrCompute(context.Background(), "insights", "k1", time.Minute, func(ctx context.Context) (interface{}, error) {
		return "fresh", nil
	})
	var corruptionErr *analytics.CacheCorruptionError
	require.ErrorAs(t, err, &corruptionErr)
	assert.Equal(t, "k1", corruptionErr.Key)
	assert.Equal(t, "other-key", corruptionErr.FoundKey)

	// The corrupt entry must be gone so the next call computes cleanly.
	result, err := cache.GetOrCompute(context.Background(), "insights", "k1", time.Minute, func(ctx context.Context) (interface{}, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `"fresh"`, string(result.Payload))
}

func TestGetOrComputeCallerTimeout(t *testing.T) {
	cache := newTestCache()
	release := make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := cache.GetOrCompute(ctx, "forecast", "slow-key", time.Minute, func(ctx context.Context) (interface{}, error) {
		<-release
		return "late", nil
	})
	var timeoutErr *analytics.ComputationTimeoutError
	require.ErrorAs(t, err, &timeoutErr)

	// The computation keeps running detached; once it finishes its result
	// is cached for later callers.
	close(release)
	require.Eventually(t, func() bool {
		result, err := cache.GetOrCompute(context.Background(), "forecast", "slow-key", time.Minute, func(ctx context.Context) (interface{}, error) {
			return "late", nil
		})
		return err == nil && string(result.Payload) == `"late"`
	}, time.Second, 10*time.Millisecond)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	cache := newTestCache()
	var calls int32

	compute := func(ctx context.Context) (interface{}, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	_, err := cache.GetOrCompute(context.Background(), "insights", "k1", time.Minute, compute)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background(), "k1"))

	result, err := cache.GetOrCompute(context.Background(), "insights", "k1", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.JSONEq(t, "2", string(result.Payload))
}

func TestStatsPerCategory(t *testing.T) {
	cache := newTestCache()
	compute := func(ctx context.Context) (interface{}, error) { return "v", nil }

	_, _ = cache.GetOrCompute(context.Background(), "insights", "a", time.Minute, compute)
	_, _ = cache.GetOrCompute(context.Background(), "insights", "a", time.Minute, compute)
	_, _ = cache.GetOrCompute(context.Background(), "forecast", "b", time.Minute, compute)

	stats := cache.GetStats()
	require.Contains(t, stats, "insights")
	require.Contains(t, stats, "forecast")
	assert.Equal(t, int64(1), stats["insights"].Hits)
	assert.Equal(t, int64(1), stats["insights"].Misses)
	assert.InDelta(t, 0.5, stats["insights"].HitRate, 1e-9)
	assert.Equal(t, int64(0), stats["forecast"].Hits)
	assert.Equal(t, int64(1), stats["forecast"].Misses)
}

func TestMemoryStoreRetention(t *testing.T) {
	store := NewMemoryStore()
	entry := &Entry{
		Key:        "k1",
		Payload:    json.RawMessage(`1`),
		ComputedAt: time.Now().Add(-30 * time.Millisecond),
		TTL:        10 * time.Millisecond,
	}
	require.NoError(t, store.Set(context.Background(), entry))

	// Expired but inside the retention window: still retrievable as stale.
	got, found, err := store.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, got.Fresh(time.Now()))

	// Beyond retention the entry is dropped.
	entry.ComputedAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Set(context.Background(), entry))
	_, found, err = store.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, store.Len())
}
