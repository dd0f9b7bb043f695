package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limits configures the fixed windows the limiter enforces.
type Limits struct {
	Window        time.Duration
	PerPurpose    map[string]int // requests per window per IP, keyed by purpose
	Default       int            // used for purposes not in PerPurpose
	EmailCooldown time.Duration
}

// Limiter counts requests per IP in fixed Redis windows and keeps a
// per-email cooldown for reset mails.
type Limiter struct {
	client *redis.Client
	limits Limits
}

func NewLimiter(client *redis.Client, limits Limits) *Limiter {
	if limits.Window <= 0 {
		limits.Window = 15 * time.Minute
	}
	if limits.Default <= 0 {
		limits.Default = 10
	}
	return &Limiter{client: client, limits: limits}
}

func ipKey(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

func cooldownKey(email string) string {
	return fmt.Sprintf("cooldown:email:%s", strings.ToLower(email))
}

func (l *Limiter) limitFor(purpose string) int {
	if n, ok := l.limits.PerPurpose[purpose]; ok && n > 0 {
		return n
	}
	return l.limits.Default
}

// CheckIPRateLimitWithPurpose reports whether ip has used up its window for purpose
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(purpose, ip)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit: %w", err)
	}
	return count >= l.limitFor(purpose), nil
}

// RecordIPRequestWithPurpose counts one request. The window key is created
// with its expiry in the same transaction as the increment.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(purpose, ip)

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.limits.Window)
		pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// CheckEmailCooldown reports whether a reset mail was requested for email recently
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Exists(ctx, cooldownKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cooldown: %w", err)
	}
	return n > 0, nil
}

// SetEmailCooldown starts the cooldown for email
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if l.limits.EmailCooldown <= 0 {
		return nil
	}
	if err := l.client.SetNX(ctx, cooldownKey(email), "1", l.limits.EmailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	return nil
}
