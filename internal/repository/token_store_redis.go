package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisTokenStore struct {
	Redis *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{Redis: rdb}
}

func tokenKey(deviceID string) string {
	return fmt.Sprintf("portal:token:%s", deviceID)
}

func (s *RedisTokenStore) Get(ctx context.Context, deviceID string) (string, error) {
	val, err := s.Redis.Get(ctx, tokenKey(deviceID)).Result()
	if err == redis.Nil {
		return "", ErrTokenNotFound
	}
	return val, err
}

// Set 令牌过期时间即 key 的 TTL
func (s *RedisTokenStore) Set(ctx context.Context, deviceID, sealed string, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			return s.Delete(ctx, deviceID)
		}
	}
	return s.Redis.Set(ctx, tokenKey(deviceID), sealed, ttl).Err()
}

func (s *RedisTokenStore) Delete(ctx context.Context, deviceID string) error {
	return s.Redis.Del(ctx, tokenKey(deviceID)).Err()
}

func (s *RedisTokenStore) Ping(ctx context.Context) error {
	return s.Redis.Ping(ctx).Err()
}
