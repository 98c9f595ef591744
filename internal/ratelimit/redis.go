package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisLimiter counts requests per key in a shared Redis fixed window, so
// several server instances enforce one limit. When Redis fails it falls back
// to a local sliding window.
type RedisLimiter struct {
	client   redis.Scripter
	limit    int
	window   time.Duration
	prefix   string
	timeout  time.Duration
	fallback Limiter
}

// NewRedisLimiter creates a limiter on client
func NewRedisLimiter(client redis.Scripter, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client:   client,
		limit:    limit,
		window:   window,
		prefix:   "service-center:rl:",
		timeout:  2 * time.Second,
		fallback: NewSlidingWindow(limit, window),
	}
}

// Allow admits the request when the shared count is within the limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) Decision {
	if l.client == nil {
		return l.fallback.Allow(ctx, key)
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Result()
	if err != nil {
		log.WithError(err).Warn("Redis rate limit check failed, using local limiter")
		return l.fallback.Allow(ctx, key)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		log.WithField("result", res).Warn("Unexpected rate limit script result, using local limiter")
		return l.fallback.Allow(ctx, key)
	}
	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = l.window.Milliseconds()
	}
	return decide(int(count), l.limit, time.Now().Add(time.Duration(ttlMs)*time.Millisecond))
}
