package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionIDCookie carries the opaque id that keys the redis entry.
	SessionIDCookie = "villa_sid"

	redisKeyPrefix = "villa-web:session:"
)

// RedisStore keeps the credential in redis; the browser only holds a
// random session id.
type RedisStore struct {
	client *redis.Client
	jar    CookieJar
	ttl    time.Duration
}

// NewRedisStore returns a store backed by client for the browser behind jar.
func NewRedisStore(client *redis.Client, jar CookieJar, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, jar: jar, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context) (string, bool, error) {
	sid := s.jar.Get(SessionIDCookie)
	if sid == "" {
		return "", false, nil
	}

	token, err := s.client.Get(ctx, redisKey(sid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return token, token != "", nil
}

// Save always stores the credential under a freshly minted session id and
// drops the entry behind the id the browser arrived with.
func (s *RedisStore) Save(ctx context.Context, token string) error {
	previous := s.jar.Get(SessionIDCookie)
	sid := uuid.NewString()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey(sid), token, s.ttl)
		if previous != "" {
			pipe.Del(ctx, redisKey(previous))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.jar.Set(SessionIDCookie, sid, s.ttl)
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	sid := s.jar.Get(SessionIDCookie)
	s.jar.Expire(SessionIDCookie)
	if sid == "" {
		return nil
	}
	if err := s.client.Del(ctx, redisKey(sid)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func redisKey(sid string) string {
	return redisKeyPrefix + sid
}
