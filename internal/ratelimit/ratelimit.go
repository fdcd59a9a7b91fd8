package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Limiter decides whether the caller identified by key may proceed.
// retryAfter is only meaningful when allowed is false.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// Config defines a fixed number of hits per window
type Config struct {
	Limit  int
	Window time.Duration
}

// New returns a Redis-backed limiter that falls back to a local token
// bucket when Redis is unreachable, or only the local limiter when rdb is nil.
func New(rdb *redis.Client, cfg Config) Limiter {
	local := NewLocalLimiter(cfg)
	if rdb == nil {
		return local
	}
	return &fallbackLimiter{primary: NewRedisLimiter(rdb, cfg), local: local}
}

// RedisLimiter counts hits per key in a fixed window shared by every
// instance, using INCR with an expiry set on the first hit.
type RedisLimiter struct {
	rdb    *redis.Client
	cfg    Config
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, cfg: cfg, prefix: "rate:"}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if rl == nil || rl.rdb == nil {
		return false, 0, fmt.Errorf("redis client not available")
	}
	k := rl.prefix + key

	count, err := rl.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	// Set expiration if first time
	if count == 1 {
		if err := rl.rdb.Expire(ctx, k, rl.cfg.Window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count <= int64(rl.cfg.Limit) {
		return true, 0, nil
	}

	ttl, err := rl.rdb.TTL(ctx, k).Result()
	if err != nil || ttl <= 0 {
		// A key without expiry would block forever; repair it.
		rl.rdb.Expire(ctx, k, rl.cfg.Window)
		ttl = rl.cfg.Window
	}
	return false, ttl, nil
}

type fallbackLimiter struct {
	primary *RedisLimiter
	local   *LocalLimiter
}

func (f *fallbackLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	allowed, retry, err := f.primary.Allow(ctx, key)
	if err == nil {
		return allowed, retry, nil
	}
	log.Warn().Err(err).Msg("redis rate limiter unavailable, using local limiter")
	return f.local.Allow(ctx, key)
}

// Run starts the local limiter's janitor; see LocalLimiter.Run.
func (f *fallbackLimiter) Run(ctx context.Context) {
	f.local.Run(ctx)
}

const idleTTL = 10 * time.Minute

// LocalLimiter keeps one token bucket per key in memory. It refills
// Limit tokens per Window with a burst of Limit.
type LocalLimiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(cfg Config) *LocalLimiter {
	return &LocalLimiter{cfg: cfg, now: time.Now, buckets: make(map[string]*bucket)}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		every := rate.Every(l.cfg.Window / time.Duration(max(l.cfg.Limit, 1)))
		b = &bucket{limiter: rate.NewLimiter(every, l.cfg.Limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, l.cfg.Window, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// Run removes idle buckets every minute until ctx is cancelled.
func (l *LocalLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep(l.now())
		}
	}
}

func (l *LocalLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleTTL {
			delete(l.buckets, key)
		}
	}
}

// Runner is implemented by limiters with background cleanup.
type Runner interface {
	Run(ctx context.Context)
}
