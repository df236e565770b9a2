package cloudmetrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/traffictuner/traffictuner/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pushInterval = 30 * time.Minute

var Module = fx.Module("cloud.metrics",
	fx.Provide(fx.Private, func() *prometheus.Registry {
		return prometheus.NewRegistry()
	}),
	fx.Provide(fx.Private, NewPusher),
	fx.Invoke(register),
)

type registerParams struct {
	fx.In

	LC       fx.Lifecycle
	Cfg      config.Config
	Registry *prometheus.Registry
	Pusher   Pusher `optional:"true"`
	Log      *zap.Logger
	DB       *gorm.DB
}

func register(p registerParams) {
	if p.Pusher == nil {
		return
	}

	log := p.Log.Named("cloud.metrics")
	m := newMetrics(p.Registry)
	setRecorder(&recorder{
		metrics:    m,
		instanceID: p.Cfg.Cloud.InstanceID,
	})

	ctx, cancel := context.WithCancel(context.Background())
	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(pushInterval)
				defer ticker.Stop()

				pushOnce(ctx, m, p.Pusher, p.Registry, p.DB, log)
				for {
					select {
					case <-ticker.C:
						pushOnce(ctx, m, p.Pusher, p.Registry, p.DB, log)
					case <-ctx.Done():
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func pushOnce(ctx context.Context, m *metrics, pusher Pusher, registry *prometheus.Registry, db *gorm.DB, log *zap.Logger) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.memorySysBytes.Set(float64(stats.Sys))

	if db != nil {
		var count int64
		if err := db.WithContext(ctx).Table("domains").Count(&count).Error; err == nil {
			m.domainsTotal.Set(float64(count))
		}
	}

	if err := pusher.Push(ctx, registry); err != nil {
		log.Warn("cloud metrics push failed", zap.Error(err))
	}
}
