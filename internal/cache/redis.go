package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LocatorKeyPrefix namespaces player locator entries.
const LocatorKeyPrefix = "vesta:locator:"

// RedisCache holds resolved player locators. Stats tables are never stored.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect opens a Redis client from a URL and pings it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// NewRedisCache wraps an existing client. A zero ttl keeps entries forever.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetLocator returns the cached player path for name, or "" on a miss.
func (rc *RedisCache) GetLocator(ctx context.Context, name string) (string, error) {
	v, err := rc.client.Get(ctx, LocatorKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading locator: %w", err)
	}
	return v, nil
}

// SetLocator stores the player path for name.
func (rc *RedisCache) SetLocator(ctx context.Context, name, locator string) error {
	if err := rc.client.Set(ctx, LocatorKey(name), locator, rc.ttl).Err(); err != nil {
		return fmt.Errorf("writing locator: %w", err)
	}
	return nil
}

// Forget drops cached locators for the given names.
func (rc *RedisCache) Forget(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = LocatorKey(n)
	}
	return rc.client.Del(ctx, keys...).Err()
}

// LocatorKey is the Redis key for a player name. Names are matched
// case-insensitively with surrounding and repeated spaces ignored.
func LocatorKey(name string) string {
	return LocatorKeyPrefix + strings.ToLower(strings.Join(strings.Fields(name), " "))
}
