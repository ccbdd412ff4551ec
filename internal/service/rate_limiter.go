package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisclient "github.com/vetchat/chatbot-server-go/internal/redis"
)

// rateLimitScript is a Lua script for sliding window rate limiting.
// It returns {allowed, remaining, resetAt}.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = now + window
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

return {1, limit - count - 1, now + window}
`)

type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimiter is a Redis sliding-window limiter shared by all server instances.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// CheckLimit records one hit for key. A Redis failure lets the request through.
func (rl *RateLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) RateLimitResult {
	now := time.Now().Unix()
	secs := int64(window.Seconds())

	result, err := rateLimitScript.Run(
		ctx,
		rl.client,
		[]string{redisclient.RateLimitKey(key)},
		now,
		secs,
		limit,
	).Int64Slice()

	if err != nil || len(result) != 3 {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("rate limit check failed, allowing request")
		return RateLimitResult{Allowed: true, Remaining: limit - 1, ResetAt: time.Unix(now+secs, 0)}
	}

	return RateLimitResult{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		ResetAt:   time.Unix(result[2], 0),
	}
}
