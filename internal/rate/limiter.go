package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config bounds failures per identifier within a fixed window.
type Config struct {
	Prefix      string
	MaxFailures int
	Window      time.Duration
}

// Limiter counts failures per identifier in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "sg:fail"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Check returns ErrRateLimited once id has used up its failure budget for
// the current window.
func (l *Limiter) Check(ctx context.Context, id string) error {
	count, err := l.Failures(ctx, id)
	if err != nil {
		return err
	}
	if count >= l.config.MaxFailures {
		return ErrRateLimited
	}
	return nil
}

// Fail records one failure for id. The window starts at the first failure.
func (l *Limiter) Fail(ctx context.Context, id string) (int, error) {
	key := l.key(id)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
		}
	}
	return int(count), nil
}

// Reset clears id's counter, typically after a success.
func (l *Limiter) Reset(ctx context.Context, id string) error {
	if err := l.redis.Del(ctx, l.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// Failures returns the current count. Missing keys count as zero and do
// not reveal whether id exists.
func (l *Limiter) Failures(ctx context.Context, id string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(id)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

func (l *Limiter) key(id string) string {
	return l.config.Prefix + ":" + id
}
