package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/traffictuner/traffictuner/internal/config"
	obsmetrics "github.com/traffictuner/traffictuner/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyAnalyzeUser = "analyze:user:%s"

// Guard bundles the redis-backed request limits: a per-user token bucket
// on the analyze endpoint and a failed-login throttle per address. A nil
// Guard, or redis being unreachable, degrades open so the limits never
// take the service down with them.
type Guard struct {
	enabled bool

	log      *zap.Logger
	bucket   *TokenBucket
	throttle *LoginThrottle
	metrics  *obsmetrics.Metrics

	analyzeRate  float64
	analyzeBurst int
}

type GuardParams struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func NewGuard(p GuardParams) (*Guard, error) {
	limitCfg := p.Cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.AnalyzeRate <= 0 || limitCfg.AnalyzeBurst <= 0 {
		return nil, errors.New("analyze rate limit must be positive")
	}
	if limitCfg.LoginMaxFailures <= 0 || limitCfg.LoginBlockSeconds <= 0 {
		return nil, errors.New("login throttle limits must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &Guard{
		enabled:      true,
		log:          p.Log.Named("ratelimit.guard"),
		bucket:       NewTokenBucket(client),
		throttle:     NewLoginThrottle(client, limitCfg.LoginMaxFailures, time.Duration(limitCfg.LoginBlockSeconds)*time.Second),
		metrics:      p.Metrics,
		analyzeRate:  limitCfg.AnalyzeRate,
		analyzeBurst: limitCfg.AnalyzeBurst,
	}, nil
}

func (g *Guard) Enabled() bool {
	return g != nil && g.enabled
}

// AllowAnalyze reports whether the user may submit another analysis
// right now.
func (g *Guard) AllowAnalyze(ctx context.Context, userID snowflake.ID) bool {
	if !g.Enabled() {
		return true
	}

	res, err := g.bucket.Allow(ctx, fmt.Sprintf(keyAnalyzeUser, userID.String()), g.analyzeRate, g.analyzeBurst)
	if err != nil {
		g.log.Warn("analyze rate check failed, allowing request", zap.Error(err))
		return true
	}
	if res.Allowed {
		g.metrics.RecordRateLimitAllowed(ctx, "analyze")
		return true
	}
	g.metrics.RecordRateLimitDenied(ctx, "analyze", "token_bucket")
	return false
}

// LoginBlocked reports whether the address is serving a failed-login
// block.
func (g *Guard) LoginBlocked(ctx context.Context, ip string) bool {
	if !g.Enabled() {
		return false
	}

	blocked, err := g.throttle.Blocked(ctx, ip)
	if err != nil {
		g.log.Warn("login throttle check failed, allowing request", zap.Error(err))
		return false
	}
	if blocked {
		g.metrics.RecordRateLimitDenied(ctx, "login", "failed_attempts")
	}
	return blocked
}

func (g *Guard) RegisterLoginFailure(ctx context.Context, ip string) {
	if !g.Enabled() {
		return
	}
	if err := g.throttle.RegisterFailure(ctx, ip); err != nil {
		g.log.Warn("login failure not recorded", zap.Error(err))
	}
}

func (g *Guard) ResetLoginFailures(ctx context.Context, ip string) {
	if !g.Enabled() {
		return
	}
	if err := g.throttle.Reset(ctx, ip); err != nil {
		g.log.Warn("login failure reset failed", zap.Error(err))
	}
}
