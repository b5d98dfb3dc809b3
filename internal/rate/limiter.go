package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning parameters. A disabled throttle turns its
// methods into no-ops.
type Config struct {
	EnableIssueThrottle   bool
	EnableConfirmThrottle bool
	MaxIssuesPerWindow    int
	IssueWindow           time.Duration
	MaxConfirmAttempts    int
	ConfirmWindow         time.Duration
}

// Limiter enforces per-email and per-IP budgets for code issuance and
// per-email budgets for code confirmation, using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckIssue consumes one issuance slot for the email (and IP when present).
// Returns [ErrRateLimited] once the window budget is spent.
func (l *Limiter) CheckIssue(ctx context.Context, email, ip string) error {
	if !l.config.EnableIssueThrottle {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, issueEmailKey(email), l.config.IssueWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxIssuesPerWindow) {
		return ErrRateLimited
	}

	if ip != "" {
		count, err = l.incrementWithTTL(ctx, issueIPKey(ip), l.config.IssueWindow)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxIssuesPerWindow) {
			return ErrRateLimited
		}
	}

	return nil
}

// CheckConfirm consumes one verify/consume attempt for the email. Successful
// consumption should call ResetConfirm so a later reset flow starts fresh.
func (l *Limiter) CheckConfirm(ctx context.Context, email string) error {
	if !l.config.EnableConfirmThrottle {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, confirmEmailKey(email), l.config.ConfirmWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxConfirmAttempts) {
		return ErrRateLimited
	}

	return nil
}

// ResetConfirm clears the confirmation counter for an email.
func (l *Limiter) ResetConfirm(ctx context.Context, email string) error {
	if !l.config.EnableConfirmThrottle {
		return nil
	}

	if err := l.redis.Del(ctx, confirmEmailKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// ConfirmAttempts returns the current confirmation counter for an email.
// Missing keys return zero and do not reveal account existence.
func (l *Limiter) ConfirmAttempts(ctx context.Context, email string) (int, error) {
	count, err := l.redis.Get(ctx, confirmEmailKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func issueEmailKey(email string) string {
	return "oi:" + email
}

func issueIPKey(ip string) string {
	return "oii:" + ip
}

func confirmEmailKey(email string) string {
	return "oc:" + email
}
