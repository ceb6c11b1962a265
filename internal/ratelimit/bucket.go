package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// takeScript refills the bucket from the redis clock, takes one token if it
// can and returns {allowed, remaining, retry_ms}. Tokens are stored as
// floats; the reply carries whole tokens only.
const takeScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now
if now > ts then
  tokens = math.min(burst, tokens + (now - ts) / 1000 * rate)
end

local allowed = 0
local retry = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.ceil((1 - tokens) / rate * 1000)
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)
return {allowed, math.floor(tokens), retry}
`

var (
	ErrBucketNotConfigured = errors.New("bucket_not_configured")
	ErrInvalidBucket       = errors.New("invalid_bucket")
)

// Decision is the outcome of taking a token.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Bucket is a redis token bucket shared by every replica.
type Bucket struct {
	client *redis.Client
	script *redis.Script
}

func NewBucket(client *redis.Client) *Bucket {
	if client == nil {
		return nil
	}
	return &Bucket{client: client, script: redis.NewScript(takeScript)}
}

// Take removes one token from the bucket at key.
func (b *Bucket) Take(ctx context.Context, key string, rate float64, burst int) (Decision, error) {
	if b == nil || b.client == nil {
		return Decision{}, ErrBucketNotConfigured
	}
	if key == "" || rate <= 0 || burst <= 0 {
		return Decision{}, fmt.Errorf("%w: key=%q rate=%v burst=%d", ErrInvalidBucket, key, rate, burst)
	}

	reply, err := b.script.Run(ctx, b.client, []string{key},
		rate, burst, bucketTTL(rate, burst).Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	return decisionFromReply(reply, burst)
}

func decisionFromReply(reply []int64, burst int) (Decision, error) {
	if len(reply) != 3 {
		return Decision{}, fmt.Errorf("bucket script returned %d values", len(reply))
	}
	return Decision{
		Allowed:    reply[0] == 1,
		Limit:      burst,
		Remaining:  int(reply[1]),
		RetryAfter: time.Duration(reply[2]) * time.Millisecond,
	}, nil
}

// bucketTTL keeps an idle bucket around for twice its full refill time.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(float64(burst)/rate*2))
	return time.Duration(seconds) * time.Second
}
