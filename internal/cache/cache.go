// Package cache implements the blob-backed content cache: policy-driven
// read-through/write-through with date-sensitive caching and a dual-tier
// fall-back to local disk when the remote back-end cannot be written to.
package cache

import (
	"context"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/blob"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

// Action is the recognized set of cache behaviors for a single key.
type Action int

const (
	// ReadFetchWrite tries a read first; on miss it fetches and, if the
	// back-end is writable, persists the result.
	ReadFetchWrite Action = iota
	// ReadFetch tries a read first; on miss it fetches but never writes.
	// Used for dates that are still volatile (today or the future).
	ReadFetch
	// FetchWrite skips the read and always fetches, writing the result if
	// the back-end is writable.
	FetchWrite
)

// ActionForDate returns ReadFetch when date is today (UTC) or later, and
// ReadFetchWrite otherwise. Future/today data is volatile and must not be
// cached as final.
func ActionForDate(date time.Time) Action {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if !d.Before(today) {
		return ReadFetch
	}
	return ReadFetchWrite
}

// Fetch produces the bytes for a cache miss. It is evaluated at most once
// per Cache.Call invocation.
type Fetch func(ctx context.Context) ([]byte, error)

// Cache mediates every external fetch and intermediate artifact through a
// primary back-end with an optional local-disk fall-back for when the
// primary is read-only or a write is rejected with an authorization error.
type Cache struct {
	Primary  blob.Store
	Fallback blob.Store // used when Primary.CanPut() is false, or a write is unauthorized
	logger   *logger.Logger
}

// New builds a Cache. fallback may be nil if primary is always writable
// (e.g. a LocalDisk primary never needs a fall-back).
func New(primary, fallback blob.Store, log *logger.Logger) *Cache {
	return &Cache{Primary: primary, Fallback: fallback, logger: log.Named("cache")}
}

// Call implements cached_call(key, fetch, back-end, action):
//  1. If action allows read, consult the back-end; return on hit.
//  2. Evaluate fetch().
//  3. If action allows write and the back-end is writable, persist the bytes.
//  4. Return the bytes.
//
// On an unauthorized write to Primary, or when Primary is read-only, the
// result is written to Fallback instead (the dual-tier cache).
func (c *Cache) Call(ctx context.Context, key string, fetch Fetch, action Action) ([]byte, error) {
	if action != FetchWrite {
		if data, ok, err := c.Primary.MaybeGet(ctx, key); err != nil {
			return nil, err
		} else if ok {
			c.logger.Debug("cache hit", logger.String("key", key))
			return data, nil
		}

		// Primary is read-only: the fall-back tier may already hold a
		// previously-written copy from an earlier unauthorized-write episode.
		if !c.Primary.CanPut() && c.Fallback != nil {
			if data, ok, err := c.Fallback.MaybeGet(ctx, key); err != nil {
				return nil, err
			} else if ok {
				c.logger.Debug("cache hit (fallback)", logger.String("key", key))
				return data, nil
			}
		}
	}

	c.logger.Debug("cache miss", logger.String("key", key))
	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if action == ReadFetch {
		return data, nil
	}

	if err := c.write(ctx, key, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Cache) write(ctx context.Context, key string, data []byte) error {
	if !c.Primary.CanPut() {
		return c.writeFallback(ctx, key, data)
	}

	err := c.Primary.Put(ctx, key, data)
	if err == nil {
		return nil
	}
	if blob.IsUnauthorized(err) && c.Fallback != nil {
		c.logger.Warn("primary write unauthorized, falling back to local disk",
			logger.String("key", key), logger.Error(err))
		return c.writeFallback(ctx, key, data)
	}
	return err
}

func (c *Cache) writeFallback(ctx context.Context, key string, data []byte) error {
	if c.Fallback == nil {
		return nil
	}
	return c.Fallback.Put(ctx, key, data)
}
