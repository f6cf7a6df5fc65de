package redis

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiter is a fixed-window per-client rate limiter backed by redis
// INCR + EXPIRE. It fails open: if redis is unreachable the request is
// allowed, because throttling is not worth refusing grade edits over.
type RateLimiter struct {
	cache  *Cache
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// NewRateLimiter creates a rate limiter allowing limit requests per window.
func NewRateLimiter(cache *Cache, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		cache:  cache,
		limit:  int64(limit),
		window: window,
		logger: logger,
	}
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	windowStamp := time.Now().Unix() / int64(rl.window.Seconds())
	redisKey := RateLimitKey(key, strconv.FormatInt(windowStamp, 10))

	count, err := rl.cache.Incr(ctx, redisKey)
	if err != nil {
		rl.logger.Warn("rate limiter unavailable, allowing request", "error", err)
		return true
	}

	// First hit in the window owns setting the expiry.
	if count == 1 {
		if err := rl.cache.Expire(ctx, redisKey, rl.window); err != nil {
			rl.logger.Warn("failed to set rate limit window expiry", "key", redisKey, "error", err)
		}
	}

	return count <= rl.limit
}
