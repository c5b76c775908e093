package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const analyticsTTL = 90 * 24 * time.Hour

// DailyStat 是某一天的用量计数。
type DailyStat struct {
	Date          string           `json:"date"`
	Requests      int64            `json:"requests"`
	Failed        int64            `json:"failed"`
	Tokens        int64            `json:"tokens"`
	ByRequestType map[string]int64 `json:"by_request_type"`
	ByProvider    map[string]int64 `json:"by_provider"`
}

// AnalyticsRepository 在 Redis 中维护按天聚合的用量计数，由用量事件消费者写入。
type AnalyticsRepository interface {
	Increment(ctx context.Context, at time.Time, requestType, provider, status string, tokens int) error
	Daily(ctx context.Context, until time.Time, days int) ([]DailyStat, error)
}

type redisAnalyticsRepository struct {
	redisClient *redis.Client
}

// NewAnalyticsRepository 创建一个新的 AnalyticsRepository 实例。
func NewAnalyticsRepository(redisClient *redis.Client) AnalyticsRepository {
	return &redisAnalyticsRepository{redisClient: redisClient}
}

func dailyKey(day time.Time) string {
	return "analytics:daily:" + day.UTC().Format("2006-01-02")
}

func (r *redisAnalyticsRepository) Increment(ctx context.Context, at time.Time, requestType, provider, status string, tokens int) error {
	key := dailyKey(at)
	_, err := r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, "requests", 1)
		pipe.HIncrBy(ctx, key, "tokens", int64(tokens))
		pipe.HIncrBy(ctx, key, "type:"+requestType, 1)
		pipe.HIncrBy(ctx, key, "provider:"+provider, 1)
		if status != "completed" {
			pipe.HIncrBy(ctx, key, "failed", 1)
		}
		pipe.Expire(ctx, key, analyticsTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment analytics counters: %w", err)
	}
	return nil
}

// Daily 返回截至 until（含）的最近 days 天的统计，按日期升序。
func (r *redisAnalyticsRepository) Daily(ctx context.Context, until time.Time, days int) ([]DailyStat, error) {
	out := make([]DailyStat, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := until.AddDate(0, 0, -i)
		fields, err := r.redisClient.HGetAll(ctx, dailyKey(day)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read analytics counters: %w", err)
		}
		out = append(out, parseDailyStat(day.UTC().Format("2006-01-02"), fields))
	}
	return out, nil
}

func parseDailyStat(date string, fields map[string]string) DailyStat {
	stat := DailyStat{
		Date:          date,
		ByRequestType: map[string]int64{},
		ByProvider:    map[string]int64{},
	}
	for k, v := range fields {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		switch {
		case k == "requests":
			stat.Requests = n
		case k == "tokens":
			stat.Tokens = n
		case k == "failed":
			stat.Failed = n
		case strings.HasPrefix(k, "type:"):
			stat.ByRequestType[strings.TrimPrefix(k, "type:")] = n
		case strings.HasPrefix(k, "provider:"):
			stat.ByProvider[strings.TrimPrefix(k, "provider:")] = n
		}
	}
	return stat
}
