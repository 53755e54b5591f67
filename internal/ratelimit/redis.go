package ratelimit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter — общий счётчик для нескольких инстансов.
// INCR + EXPIRE NX: окно привязано к первой попытке, TTL ограничивает рост ключей.
type RedisLimiter struct {
	c *redis.Client
}

func NewRedisLimiter(addr string) *RedisLimiter {
	return &RedisLimiter{
		c: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (Result, error) {
	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, errors.Wrap(err, "redis ratelimit")
	}

	n := incr.Val()
	res := Result{OK: n <= limit, Remaining: limit - n}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if ttl, err := rl.c.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
		res.ResetAt = time.Now().Add(ttl)
	}
	return res, nil
}

func (rl *RedisLimiter) Peek(ctx context.Context, key string, limit int64, window time.Duration) (Result, error) {
	n, err := rl.c.Get(ctx, key).Int64()
	if err == redis.Nil {
		return Result{OK: true, Remaining: limit, ResetAt: time.Now().Add(window)}, nil
	}
	if err != nil {
		return Result{}, errors.Wrap(err, "redis ratelimit peek")
	}

	res := Result{OK: n < limit, Remaining: limit - n}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if ttl, err := rl.c.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
		res.ResetAt = time.Now().Add(ttl)
	}
	return res, nil
}
