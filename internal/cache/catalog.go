// Package cache keeps read-mostly catalog data in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// KeyPrefix namespaces every catalog key.
const KeyPrefix = "villa-web:catalog:"

// LoadTimeout bounds a shared load, which outlives the request that
// started it.
const LoadTimeout = 10 * time.Second

// Catalog is a JSON cache with a fixed TTL. With a nil client every lookup
// goes to the loader; concurrent misses for one key share a single load.
type Catalog struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewCatalog returns a cache over client, which may be nil.
func NewCatalog(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{client: client, ttl: ttl, logger: logger}
}

// Fetch returns the cached value for key or loads, stores and returns it.
// Redis failures are logged and treated as misses.
func Fetch[T any](ctx context.Context, c *Catalog, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.get(ctx, key, new(T)); ok {
		return *v.(*T), nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()

		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.set(loadCtx, key, value)
		return value, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			c.logger.Debug("catalog load shared", zap.String("key", key))
		}
		return res.Val.(T), nil
	}
}

func (c *Catalog) get(ctx context.Context, key string, dst any) (any, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("catalog cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return dst, true
}

func (c *Catalog) set(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("catalog value not encodable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, KeyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
