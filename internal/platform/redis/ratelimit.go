// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	stdctx "context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter backs the account-scoped rate windows (email verification resend,
// SMS send, password reset request) with a Redis INCR+EXPIRE counter per key.
// It deliberately does not store the verification/reset payload itself — that
// lives in Postgres, where row-level locking and attempt counting belong.
type Limiter struct {
	client *redis.Client
}

// NewLimiter wraps an existing Redis client.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow increments the counter for key and reports whether the caller is
// within limit requests per window. The first increment on a fresh key also
// sets its expiry to window, so the count resets once the window elapses.
// retryAfter is the number of seconds until the key expires, populated only
// when the call is denied.
func (l *Limiter) Allow(ctx stdctx.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter int, err error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis: rate limit incr failed: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis: rate limit expire failed: %w", err)
		}
	}

	if int(count) <= limit {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return false, int(ttl.Seconds()), nil
}
