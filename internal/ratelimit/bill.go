package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/weighbill/internal/config"
	"go.uber.org/fx"
)

const (
	keyBillProvider = "bill:provider:%s"
	keyBillBuild    = "bill:build:%s:%s:%s"

	defaultBuildLockTTL = 2 * time.Minute
)

var ErrRedisRequired = errors.New("rate limit requires REDIS_ADDR")

// BillLimiter throttles bill builds per provider and keeps a single build of
// the same window in flight across replicas.
type BillLimiter struct {
	enabled bool

	bucket *Bucket
	lock   *BuildLock

	rate  float64
	burst int
}

type Params struct {
	fx.In

	Cfg   config.Config
	Redis *redis.Client `optional:"true"`
}

func NewBillLimiter(p Params) (*BillLimiter, error) {
	limitCfg := p.Cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if p.Redis == nil {
		return nil, ErrRedisRequired
	}
	if limitCfg.BillRatePerSecond <= 0 || limitCfg.BillBurst <= 0 {
		return nil, errors.New("bill rate limit must be positive")
	}

	return &BillLimiter{
		enabled: true,
		bucket:  NewBucket(p.Redis),
		lock:    NewBuildLock(p.Redis, defaultBuildLockTTL),
		rate:    limitCfg.BillRatePerSecond,
		burst:   limitCfg.BillBurst,
	}, nil
}

func (l *BillLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowProvider takes one token from the provider's bucket. A disabled
// limiter always allows.
func (l *BillLimiter) AllowProvider(ctx context.Context, providerID string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}
	return l.bucket.Take(ctx, fmt.Sprintf(keyBillProvider, strings.TrimSpace(providerID)), l.rate, l.burst)
}

// TryLockBuild claims the build of one provider window. The returned token
// releases it.
func (l *BillLimiter) TryLockBuild(ctx context.Context, providerID, from, to string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.lock.Acquire(ctx, buildKey(providerID, from, to))
}

func (l *BillLimiter) ReleaseBuild(ctx context.Context, providerID, from, to, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.lock.Release(ctx, buildKey(providerID, from, to), token)
}

// buildKey names the window as requested. An empty bound stands for the
// default window.
func buildKey(providerID, from, to string) string {
	if from == "" {
		from = "default"
	}
	if to == "" {
		to = "now"
	}
	return fmt.Sprintf(keyBillBuild, strings.TrimSpace(providerID), from, to)
}
