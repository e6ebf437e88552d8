package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// rateLimitScript implements an atomic token bucket: refill based on elapsed
// time, then try to consume one token. Returns 1 if the call is allowed.
// ARGV: [1]=now_ms, [2]=capacity, [3]=rate (tokens per minute)
var rateLimitScript = goredis.NewScript(`
local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last = tonumber(redis.call('HGET', KEYS[1], 'last_refill'))
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
if tokens == nil or last == nil then
  tokens = capacity
  last = now
end
local elapsed_min = (now - last) / 60000.0
tokens = math.min(capacity, tokens + elapsed_min * rate)
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end
redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'last_refill', tostring(now))
redis.call('PEXPIRE', KEYS[1], 3600000)
return allowed
`)

// VoteRateLimiter implements token bucket rate limiting for evaluation
// writes, keyed per reviewer.
type VoteRateLimiter struct {
	rdb      *goredis.Client
	clock    clockwork.Clock
	capacity int
	rate     int // tokens per minute
}

// NewVoteRateLimiter creates a new vote rate limiter.
// capacity: maximum burst size (tokens)
// rate: sustained rate (tokens per minute)
func NewVoteRateLimiter(rdb *goredis.Client, clock clockwork.Clock, capacity, rate int) *VoteRateLimiter {
	return &VoteRateLimiter{
		rdb:      rdb,
		clock:    clock,
		capacity: capacity,
		rate:     rate,
	}
}

// Allow checks whether an evaluation write is allowed for the reviewer.
// Returns true if allowed (token consumed), false if rate limited.
func (v *VoteRateLimiter) Allow(ctx context.Context, reviewerID uuid.UUID) (bool, error) {
	key := fmt.Sprintf("rate_limit:votes:%s", reviewerID)

	result, err := rateLimitScript.Run(ctx, v.rdb, []string{key},
		strconv.FormatInt(v.clock.Now().UnixMilli(), 10),
		strconv.Itoa(v.capacity),
		strconv.Itoa(v.rate),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return result == 1, nil
}
