package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrLockNotConfigured = errors.New("lock_not_configured")
	ErrLockKeyEmpty      = errors.New("lock_key_empty")
)

// BuildLock marks a bill build as in flight. Only the holder of the token
// can clear it; an abandoned lock expires after ttl.
type BuildLock struct {
	client *redis.Client
	unlock *redis.Script
	ttl    time.Duration
}

func NewBuildLock(client *redis.Client, ttl time.Duration) *BuildLock {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultBuildLockTTL
	}
	return &BuildLock{client: client, unlock: redis.NewScript(unlockScript), ttl: ttl}
}

// Acquire returns the holder token and false when another build holds key.
func (l *BuildLock) Acquire(ctx context.Context, key string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrLockNotConfigured
	}
	if key == "" {
		return "", false, ErrLockKeyEmpty
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *BuildLock) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil || key == "" || token == "" {
		return nil
	}
	return l.unlock.Run(ctx, l.client, []string{key}, token).Err()
}
