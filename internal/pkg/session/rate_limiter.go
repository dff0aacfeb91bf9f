// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit is a fixed-window allowance.
type Limit struct {
	Max    int64
	Window time.Duration
}

// Decision is the outcome of one rate-limit check. ResetAfter is the time
// left in the current window; RetryAfter is set only when the hit is denied.
type Decision struct {
	Allowed    bool
	Remaining  int64
	ResetAfter time.Duration
	RetryAfter time.Duration
}

type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow counts one hit against key and reports whether it fits within limit.
// A counter found without an expiry gets the window applied again, so a
// failed EXPIRE cannot lock the key out for good.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit Limit) (Decision, error) {
	key = "ratelimit:" + key

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	count := incr.Val()
	ttl := pttl.Val()
	if ttl <= 0 {
		if err := r.client.PExpire(ctx, key, limit.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
		ttl = limit.Window
	}

	remaining := limit.Max - count
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{Allowed: count <= limit.Max, Remaining: remaining, ResetAfter: ttl}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d, nil
}

// CheckLoginAttempt applies limit to sign-in attempts for an ip and email pair.
func (r *RateLimiter) CheckLoginAttempt(ctx context.Context, ip, email string, limit Limit) (Decision, error) {
	return r.Allow(ctx, loginKey(ip, email), limit)
}

// ResetLoginAttempts resets the login attempt counter
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, ip, email string) error {
	return r.client.Del(ctx, "ratelimit:"+loginKey(ip, email)).Err()
}

func loginKey(ip, email string) string {
	return fmt.Sprintf("login:%s:%s", ip, email)
}
