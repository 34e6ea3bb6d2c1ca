// Package ratelimit throttles failed logins with a Redis fixed-window counter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/01moynul/stockroom/internal/models"
)

var (
	// ErrRateLimited means the identifier used up its failure budget for the window.
	ErrRateLimited = errors.New("ratelimit: too many attempts")
	// ErrRedisUnavailable wraps any Redis failure. Callers decide whether to fail open.
	ErrRedisUnavailable = errors.New("ratelimit: redis unavailable")
)

// Config holds limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Limiter counts failed logins per email.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: redisClient, config: cfg}
}

// Check returns ErrRateLimited once MaxAttempts failures were recorded in the window.
func (l *Limiter) Check(ctx context.Context, email string) error {
	count, err := l.redis.Get(ctx, loginKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Fail records one failed attempt. The window starts at the first failure.
func (l *Limiter) Fail(ctx context.Context, email string) error {
	key := loginKey(email)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *Limiter) Reset(ctx context.Context, email string) error {
	if err := l.redis.Del(ctx, loginKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func loginKey(email string) string {
	return "stockroom:login:" + models.NormalizeEmail(email)
}
