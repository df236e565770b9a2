package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyLoginFailures = "login:fail:%s"

// LoginThrottle blocks an address after repeated failed logins. The
// failure counter lives for the block window, so a block clears itself.
type LoginThrottle struct {
	client      *redis.Client
	maxFailures int
	blockWindow time.Duration
}

func NewLoginThrottle(client *redis.Client, maxFailures int, blockWindow time.Duration) *LoginThrottle {
	if client == nil {
		return nil
	}
	return &LoginThrottle{
		client:      client,
		maxFailures: maxFailures,
		blockWindow: blockWindow,
	}
}

// Blocked reports whether the address has exhausted its failure budget.
func (t *LoginThrottle) Blocked(ctx context.Context, ip string) (bool, error) {
	if t == nil || t.client == nil {
		return false, errors.New("login throttle not configured")
	}
	key, err := loginKey(ip)
	if err != nil {
		return false, err
	}

	count, err := t.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return count >= t.maxFailures, nil
}

// RegisterFailure bumps the failure counter and starts the block window
// on the first failure.
func (t *LoginThrottle) RegisterFailure(ctx context.Context, ip string) error {
	if t == nil || t.client == nil {
		return errors.New("login throttle not configured")
	}
	key, err := loginKey(ip)
	if err != nil {
		return err
	}

	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.blockWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	_ = incr
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, ip string) error {
	if t == nil || t.client == nil {
		return nil
	}
	key, err := loginKey(ip)
	if err != nil {
		return err
	}
	return t.client.Del(ctx, key).Err()
}

func loginKey(ip string) (string, error) {
	trimmed := strings.TrimSpace(ip)
	if trimmed == "" {
		return "", errors.New("login throttle ip is empty")
	}
	return fmt.Sprintf(keyLoginFailures, trimmed), nil
}
