package cache

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/weighbill/internal/config"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	truckdomain "github.com/smallbiznis/weighbill/internal/truck/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ReferenceCache holds truck and provider records read during enrichment.
// Registry writes invalidate the affected entry.
type ReferenceCache interface {
	Truck(ctx context.Context, id string) (truckdomain.Truck, bool)
	PutTruck(ctx context.Context, t truckdomain.Truck)
	InvalidateTruck(ctx context.Context, id string)
	Provider(ctx context.Context, id snowflake.ID) (providerdomain.Provider, bool)
	PutProvider(ctx context.Context, p providerdomain.Provider)
	InvalidateProvider(ctx context.Context, id snowflake.ID)
}

type ReferenceParams struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Redis *redis.Client `optional:"true"`
}

type referenceCache struct {
	trucks    Cache[truckdomain.Truck]
	providers Cache[providerdomain.Provider]
	ttl       time.Duration
}

func NewReferenceCache(p ReferenceParams) ReferenceCache {
	log := p.Log.Named("reference.cache")
	if p.Cfg.Cache.Backend == BackendRedis && p.Redis != nil {
		log.Info("using redis reference cache")
		return newReferenceCache(
			NewRedisCache[truckdomain.Truck](p.Redis, "weighbill:truck:", log),
			NewRedisCache[providerdomain.Provider](p.Redis, "weighbill:provider:", log),
			p.Cfg.Cache.TTL,
		)
	}
	return NewMemoryReferenceCache(p.Cfg.Cache.TTL)
}

func NewMemoryReferenceCache(ttl time.Duration) ReferenceCache {
	return newReferenceCache(
		NewTTLCache[truckdomain.Truck](),
		NewTTLCache[providerdomain.Provider](),
		ttl,
	)
}

func newReferenceCache(trucks Cache[truckdomain.Truck], providers Cache[providerdomain.Provider], ttl time.Duration) *referenceCache {
	return &referenceCache{trucks: trucks, providers: providers, ttl: ttl}
}

func (c *referenceCache) Truck(ctx context.Context, id string) (truckdomain.Truck, bool) {
	return c.trucks.Get(ctx, id)
}

func (c *referenceCache) PutTruck(ctx context.Context, t truckdomain.Truck) {
	if t.ID == "" {
		return
	}
	c.trucks.Set(ctx, t.ID, t, c.ttl)
}

func (c *referenceCache) InvalidateTruck(ctx context.Context, id string) {
	c.trucks.Delete(ctx, id)
}

func (c *referenceCache) Provider(ctx context.Context, id snowflake.ID) (providerdomain.Provider, bool) {
	return c.providers.Get(ctx, id.String())
}

func (c *referenceCache) PutProvider(ctx context.Context, p providerdomain.Provider) {
	if p.ID == 0 {
		return
	}
	c.providers.Set(ctx, p.ID.String(), p, c.ttl)
}

func (c *referenceCache) InvalidateProvider(ctx context.Context, id snowflake.ID) {
	c.providers.Delete(ctx, id.String())
}
