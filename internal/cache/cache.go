package cache

import (
	"context"
	"time"
)

// Cache is a string-keyed cache with per-entry TTL.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)
