package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitKey_FixedWindow(t *testing.T) {
	base := time.Unix(1_800_000_000, 0) // divisible by 60
	a := rateLimitKey("openai", time.Minute, base)
	b := rateLimitKey("openai", time.Minute, base.Add(59*time.Second))
	c := rateLimitKey("openai", time.Minute, base.Add(60*time.Second))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "ratelimit:openai:30000000", a)
}

func TestRateLimit_RejectsSubSecondWindow(t *testing.T) {
	// 在访问 Redis 之前返回，因此无需真实客户端
	limiter := NewRateLimitRepository(nil)
	for _, w := range []time.Duration{0, 500 * time.Millisecond, -time.Second} {
		ok, err := limiter.Allow(context.Background(), "openai", 10, w)
		assert.ErrorIs(t, err, ErrInvalidWindow, w)
		assert.False(t, ok)
	}
}

func TestParseDailyStat(t *testing.T) {
	stat := parseDailyStat("2026-10-14", map[string]string{
		"requests":             "5",
		"tokens":               "1200",
		"failed":               "1",
		"type:blog_draft":      "3",
		"type:tone_analysis":   "2",
		"provider:huggingface": "5",
		"garbage":              "x",
	})
	assert.Equal(t, "2026-10-14", stat.Date)
	assert.Equal(t, int64(5), stat.Requests)
	assert.Equal(t, int64(1200), stat.Tokens)
	assert.Equal(t, int64(1), stat.Failed)
	assert.Equal(t, map[string]int64{"blog_draft": 3, "tone_analysis": 2}, stat.ByRequestType)
	assert.Equal(t, map[string]int64{"huggingface": 5}, stat.ByProvider)
}

func TestDailyKey(t *testing.T) {
	assert.Equal(t, "analytics:daily:2026-10-14", dailyKey(time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC)))
}
