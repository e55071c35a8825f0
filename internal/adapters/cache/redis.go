package cache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores blobs as Redis strings under <prefix>:<key>.
type RedisCache struct {
	rdb redis.Cmdable
	settings
}

// NewRedisCache wraps an existing client.
func NewRedisCache(rdb redis.Cmdable, opts ...Option) *RedisCache {
	return &RedisCache{rdb: rdb, settings: newSettings(opts)}
}

// Close closes the underlying client when it owns a connection pool.
func (c *RedisCache) Close() error {
	if cl, ok := c.rdb.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func (c *RedisCache) redisKey(key Key) string {
	return c.prefix + ":" + key.String()
}

// Get reads the blob for key.
func (c *RedisCache) Get(ctx context.Context, key Key) ([]byte, error) {
	b, err := c.rdb.Get(ctx, c.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

// Put stores the blob with the configured TTL.
func (c *RedisCache) Put(ctx context.Context, key Key, blob []byte) error {
	if err := c.rdb.Set(ctx, c.redisKey(key), blob, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes the blob for key.
func (c *RedisCache) Invalidate(ctx context.Context, key Key) error {
	if err := c.rdb.Del(ctx, c.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
