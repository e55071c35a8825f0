package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Open builds the configured backend. For redis, addr is host:port; for file,
// dir is the root directory.
func Open(backend, dir, addr string, opts ...Option) (Cache, error) {
	switch backend {
	case "", BackendFile:
		return NewFileCache(dir, opts...), nil
	case BackendRedis:
		return NewRedisCache(redis.NewClient(&redis.Options{Addr: addr}), opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
