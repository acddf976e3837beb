// Package persistence owns connections to backing services.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/config"
)

// ErrRedisDisabled is returned by Ping when REDIS_ENABLED is false.
var ErrRedisDisabled = errors.New("redis disabled")

const readyTimeout = 2 * time.Second

// Redis wraps the go-redis client. A nil *Redis stands for "not configured".
type Redis struct {
	client *redis.Client
}

// NewRedis builds a client when cfg enables Redis and returns nil otherwise.
// An unreachable server is logged, not fatal: the catalog cache falls back
// to the API and readiness reports it.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if !cfg.Enabled {
		logger.Info("redis disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{client: client}
}

// Client returns the underlying client, nil when Redis is disabled.
func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.client
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return ErrRedisDisabled
	}
	return r.client.Ping(ctx).Err()
}

// Ready is the readiness probe: disabled Redis is ready, enabled Redis must
// answer a ping within a short deadline.
func (r *Redis) Ready(ctx context.Context) error {
	if r == nil || r.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	return r.Ping(ctx)
}

// Close closes the client.
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
