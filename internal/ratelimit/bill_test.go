package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/weighbill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBillLimiter_Disabled(t *testing.T) {
	l, err := NewBillLimiter(Params{Cfg: config.Config{}})
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.False(t, l.Enabled())

	res, err := l.AllowProvider(context.Background(), "10")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	token, ok, err := l.TryLockBuild(context.Background(), "10", "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, l.ReleaseBuild(context.Background(), "10", "a", "b", token))
}

func TestNewBillLimiter_RequiresRedis(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, BillRatePerSecond: 1, BillBurst: 1}}
	_, err := NewBillLimiter(Params{Cfg: cfg})
	assert.ErrorIs(t, err, ErrRedisRequired)
}

func TestUnconfiguredPrimitives(t *testing.T) {
	var bucket *Bucket
	_, err := bucket.Take(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrBucketNotConfigured)

	var lock *BuildLock
	_, _, err = lock.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.NoError(t, lock.Release(context.Background(), "k", "t"))

	assert.Nil(t, NewBucket(nil))
	assert.Nil(t, NewBuildLock(nil, time.Second))
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, time.Second, bucketTTL(0, 1))
	assert.Equal(t, 10*time.Second, bucketTTL(1, 5))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestDecisionFromReply(t *testing.T) {
	d, err := decisionFromReply([]int64{0, 0, 350}, 5)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 5, d.Limit)
	assert.Equal(t, 350*time.Millisecond, d.RetryAfter)

	d, err = decisionFromReply([]int64{1, 4, 0}, 5)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.Remaining)

	_, err = decisionFromReply([]int64{1}, 5)
	assert.Error(t, err)
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "bill:build:10:default:now", buildKey(" 10 ", "", ""))
	assert.Equal(t, "bill:build:10:20240301000000:20240331000000", buildKey("10", "20240301000000", "20240331000000"))
}
