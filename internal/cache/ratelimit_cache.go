package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const rateWindow = time.Minute

// RateDecision is the outcome of one rate-limit check
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // zero when allowed
}

// RateLimiter admits requests per caller key
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memoryRateLimiter is a token bucket per key: capacity perMinute, refilled perMinute/60 per second
type memoryRateLimiter struct {
	mu        sync.Mutex
	perMinute int
	now       func() time.Time
	buckets   map[string]*bucket
	lastSweep time.Time
}

func NewMemoryRateLimiter(perMinute int) RateLimiter {
	return newMemoryRateLimiter(perMinute, time.Now)
}

func newMemoryRateLimiter(perMinute int, now func() time.Time) *memoryRateLimiter {
	return &memoryRateLimiter{
		perMinute: perMinute,
		now:       now,
		buckets:   make(map[string]*bucket),
	}
}

func (l *memoryRateLimiter) Allow(_ context.Context, key string) (RateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/rateWindow.Seconds()), l.perMinute)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return RateDecision{Allowed: true, Remaining: int(b.limiter.TokensAt(now))}, nil
	}

	r := b.limiter.ReserveN(now, 1)
	retryAfter := rateWindow
	if r.OK() {
		retryAfter = r.DelayFrom(now)
		r.CancelAt(now)
	}
	return RateDecision{Allowed: false, RetryAfter: retryAfter}, nil
}

// sweep drops buckets idle for a full window; they would have refilled completely
func (l *memoryRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < rateWindow {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= rateWindow {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}

// redisRateLimiter counts requests in fixed one-minute windows shared across instances
type redisRateLimiter struct {
	client    *redis.Client
	perMinute int
	now       func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, perMinute int) RateLimiter {
	return &redisRateLimiter{client: client, perMinute: perMinute, now: time.Now}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	now := l.now()
	windowStart := now.Truncate(rateWindow)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, rateWindow)
		return nil
	})
	if err != nil {
		return RateDecision{}, err
	}

	count := int(incr.Val())
	if count > l.perMinute {
		return RateDecision{Allowed: false, RetryAfter: windowStart.Add(rateWindow).Sub(now)}, nil
	}
	return RateDecision{Allowed: true, Remaining: l.perMinute - count}, nil
}
