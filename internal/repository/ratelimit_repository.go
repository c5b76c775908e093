package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrInvalidWindow 表示限流窗口短于一秒。
var ErrInvalidWindow = errors.New("rate limit window must be at least one second")

// RateLimitRepository 基于 Redis 实现固定窗口计数。
type RateLimitRepository interface {
	// Allow 对 key 在当前窗口内计数一次，超过 limit 时返回 false。
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type redisRateLimitRepository struct {
	redisClient *redis.Client
	now         func() time.Time
}

// NewRateLimitRepository 创建一个新的 RateLimitRepository 实例。
func NewRateLimitRepository(redisClient *redis.Client) RateLimitRepository {
	return &redisRateLimitRepository{redisClient: redisClient, now: time.Now}
}

func rateLimitKey(key string, window time.Duration, now time.Time) string {
	bucket := now.Unix() / int64(window/time.Second)
	return fmt.Sprintf("ratelimit:%s:%d", key, bucket)
}

func (r *redisRateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window < time.Second {
		return false, ErrInvalidWindow
	}
	k := rateLimitKey(key, window, r.now())
	var incr *redis.IntCmd
	_, err := r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		// 多留一秒，避免窗口边界处 key 提前过期
		pipe.Expire(ctx, k, window+time.Second)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}
