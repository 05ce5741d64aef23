// Package hazardcache memoizes hazard raster lookups per (tile, date) key
// for the lifetime of the process.
//
// The cache is the sole writer of HazardTile values; every other component
// holds read-only references. It is constructor-injected into the pipeline —
// never ambient global state — and cleared only by an explicit Reset.
package hazardcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"route-safety-service/internal/domain"
	"route-safety-service/internal/ports"
)

// Stats counts cache activity for logging and inspection.
type Stats struct {
	Lookups       int64
	ProviderCalls int64
	Failures      int64
}

// entry is one memoized outcome. A nil tile with failed=false is a genuine
// provider "no data" answer; failed=true marks no-data standing in for a
// provider failure, so every request touching the key can report the
// degraded coverage.
type entry struct {
	tile   *domain.HazardTile
	failed bool
}

// Cache wraps a HazardRasterProvider with get-or-populate semantics:
// at most one in-flight provider call per key; concurrent lookups for the
// same key wait on that call's outcome.
//
// Provider failures degrade to a cached "no data" entry (logged, counted,
// never fatal), so a flaky provider cannot abort a many-tile analysis and
// is not hammered with repeats of a failed tile.
type Cache struct {
	provider ports.HazardRasterProvider
	logger   *zap.Logger

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry
	stats   Stats
}

func New(provider ports.HazardRasterProvider, logger *zap.Logger) *Cache {
	return &Cache{
		provider: provider,
		logger:   logger,
		entries:  make(map[string]entry),
	}
}

// Key builds the cache key from the rounded tile bound and the analysis
// date. Rounding to 1e-6 degrees keeps float jitter from splitting entries.
func Key(bound orb.Bound, date time.Time) string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f@%s",
		bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat(),
		date.UTC().Format(time.RFC3339))
}

// Get returns the tile for (bound, date), fetching it at most once per
// process lifetime. A nil tile with nil error is a valid "no data" result;
// failed=true qualifies such a result as caused by a provider failure
// rather than a genuine empty tile, whether the failure happened on this
// lookup or on the one that populated the entry. Only context cancellation
// is returned as an error.
func (c *Cache) Get(ctx context.Context, bound orb.Bound, date time.Time) (*domain.HazardTile, bool, error) {
	key := Key(bound, date)

	c.mu.Lock()
	c.stats.Lookups++
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return e.tile, e.failed, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check: an earlier flight may have populated the entry
		// between the miss and this call.
		c.mu.Lock()
		e, ok := c.entries[key]
		c.mu.Unlock()
		if ok {
			return e, nil
		}

		c.mu.Lock()
		c.stats.ProviderCalls++
		c.mu.Unlock()

		fetched, err := c.provider.FetchRaster(ctx, bound, date)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return entry{}, err
			}

			// Degrade to "no data" for this tile; the analysis
			// continues with partial coverage.
			c.logger.Warn("hazard tile fetch failed",
				zap.String("key", key),
				zap.Error(err))
			e := entry{failed: true}
			c.mu.Lock()
			c.stats.Failures++
			c.entries[key] = e
			c.mu.Unlock()
			return e, nil
		}

		e = entry{tile: fetched}
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, false, err
	}

	e = v.(entry)
	return e.tile, e.failed, nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Reset drops all entries and counters. Intended for explicit lifecycle
// management, not periodic eviction.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.stats = Stats{}
}
