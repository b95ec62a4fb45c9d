package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// countFailure increments the failure counter and starts its window on the
// first failure. It returns the count inside the current window.
var countFailure = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

const redisOpTimeout = 2 * time.Second

// RedisRateLimiter shares login lockouts between instances through Redis.
// Redis failures fail closed: the attempt is refused for one window.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
	policy LockoutPolicy
}

// NewRedisRateLimiter creates a limiter over an existing client.
func NewRedisRateLimiter(client redis.UniversalClient, prefix string, policy LockoutPolicy) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "bookshelf:login"
	}
	return &RedisRateLimiter{client: client, prefix: prefix, policy: policy}, nil
}

func (l *RedisRateLimiter) failuresKey(ip, email string) string {
	return l.prefix + ":failures:" + lockoutSubject(ip, email)
}

func (l *RedisRateLimiter) lockKey(ip, email string) string {
	return l.prefix + ":lock:" + lockoutSubject(ip, email)
}

func (l *RedisRateLimiter) Allow(ip, email string) (bool, time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	ttl, err := l.client.PTTL(ctx, l.lockKey(ip, email)).Result()
	if err != nil {
		log.WithError(err).Warn("Login limiter unavailable, refusing attempt")
		return false, l.policy.Window
	}
	// PTTL returns a negative duration when the key does not exist.
	if ttl > 0 {
		return false, ttl
	}
	return true, 0
}

func (l *RedisRateLimiter) RecordFailure(ip, email string) (bool, time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	count, err := countFailure.Run(ctx, l.client, []string{l.failuresKey(ip, email)},
		l.policy.Window.Milliseconds()).Int64()
	if err != nil {
		log.WithError(err).Warn("Failed to record login failure")
		return false, 0
	}

	locked, retryAfter := l.policy.afterFailure(count)
	if !locked {
		return false, 0
	}
	if err := l.client.Set(ctx, l.lockKey(ip, email), count, retryAfter).Err(); err != nil {
		log.WithError(err).Warn("Failed to store login lockout")
	}
	return true, retryAfter
}

func (l *RedisRateLimiter) RecordSuccess(ip, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := l.client.Del(ctx, l.failuresKey(ip, email), l.lockKey(ip, email)).Err(); err != nil {
		log.WithError(err).Warn("Failed to reset login failures")
	}
}
