package middlewares

import (
	"context"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisLimiter counts attempts with INCR + EXPIRE so the window is shared
// across replicas. A redis failure fails open: credential checks still hold
// the line, the limiter only slows brute force.
type RedisLimiter struct {
	client  *redis.Client
	log     *slog.Logger
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
}

func NewRedisLimiter(addr, password string, db, limit int, window time.Duration, log *slog.Logger) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisLimiter{
		client:  client,
		log:     log,
		prefix:  "userhub:ratelimit:",
		limit:   limit,
		window:  window,
		timeout: 250 * time.Millisecond,
	}, nil
}

func (rl *RedisLimiter) Allow(key string) (bool, time.Duration) {
	if rl.limit <= 0 {
		return true, 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logErr("incr", err)
		return true, 0
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			rl.logErr("expire", err)
		}
	}

	if int(counter) <= rl.limit {
		return true, 0
	}

	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = rl.window
	}

	return false, ttl
}

func (rl *RedisLimiter) Close() error {
	return rl.client.Close()
}

func (rl *RedisLimiter) logErr(op string, err error) {
	if rl.log == nil {
		return
	}
	rl.log.Error("redis rate limiter error", "op", op, "err", err)
}
