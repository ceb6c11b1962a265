package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/weighbill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const redisOpTimeout = 250 * time.Millisecond

// NewRedisClient connects to redis when REDIS_ADDR is set. It returns nil
// otherwise so dependents can fall back to in-process state.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*redis.Client, error) {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return err
			}
			log.Info("redis connected", zap.String("addr", addr))
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// redisCache stores JSON-encoded values. Redis errors degrade to misses.
type redisCache[V any] struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

func NewRedisCache[V any](client *redis.Client, prefix string, log *zap.Logger) Cache[V] {
	if log == nil {
		log = zap.NewNop()
	}
	return &redisCache[V]{client: client, prefix: prefix, log: log}
}

func (c *redisCache[V]) key(k string) string {
	return c.prefix + k
}

func (c *redisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", zap.String("key", c.key(key)), zap.Error(err))
		}
		return zero, false
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		c.log.Warn("cache entry undecodable", zap.String("key", c.key(key)), zap.Error(err))
		return zero, false
	}
	return v, true
}

func (c *redisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", c.key(key)), zap.Error(err))
	}
}

func (c *redisCache[V]) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.log.Warn("cache delete failed", zap.String("key", c.key(key)), zap.Error(err))
	}
}
