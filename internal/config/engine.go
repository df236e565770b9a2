package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EngineConfig holds the tunable analysis engine settings. The file is
// hot-reloaded so score thresholds can change without a restart.
type EngineConfig struct {
	AnalyzeTimeout     time.Duration `mapstructure:"analyzeTimeout"`
	DeepAnalyzeTimeout time.Duration `mapstructure:"deepAnalyzeTimeout"`
	WorkerCount        int           `mapstructure:"workerCount"`
	QueueSize          int           `mapstructure:"queueSize"`
	DefaultSEOScore    float64       `mapstructure:"defaultSeoScore"`
	DefaultAEOScore    float64       `mapstructure:"defaultAeoScore"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		AnalyzeTimeout:     90 * time.Second,
		DeepAnalyzeTimeout: 5 * time.Minute,
		WorkerCount:        4,
		QueueSize:          64,
		DefaultSEOScore:    60.0,
		DefaultAEOScore:    70.0,
	}
}

type EngineConfigHolder struct {
	current atomic.Value // holds EngineConfig
}

func NewEngineConfigHolder() (*EngineConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("engine")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/traffictuner/config") // Volume-mounted config
	v.AddConfigPath("/etc/traffictuner")            // System config
	v.AddConfigPath(".")                            // Current directory (dev mode)

	v.SetEnvPrefix("TRAFFICTUNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultEngineConfig()
	v.SetDefault("engine.analyzeTimeout", defaults.AnalyzeTimeout)
	v.SetDefault("engine.deepAnalyzeTimeout", defaults.DeepAnalyzeTimeout)
	v.SetDefault("engine.workerCount", defaults.WorkerCount)
	v.SetDefault("engine.queueSize", defaults.QueueSize)
	v.SetDefault("engine.defaultSeoScore", defaults.DefaultSEOScore)
	v.SetDefault("engine.defaultAeoScore", defaults.DefaultAEOScore)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg EngineConfig
	if err := v.UnmarshalKey("engine", &cfg); err != nil {
		return nil, err
	}
	if err := validateEngineConfig(cfg); err != nil {
		return nil, err
	}

	holder := &EngineConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated EngineConfig
		if err := v.UnmarshalKey("engine", &updated); err != nil {
			log.Printf("[engine-config] reload failed: %v", err)
			return
		}
		if err := validateEngineConfig(updated); err != nil {
			log.Printf("[engine-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[engine-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *EngineConfigHolder) Get() EngineConfig {
	return h.current.Load().(EngineConfig)
}

// NewStaticEngineConfigHolder returns a holder pinned to cfg. No file is
// read and no watcher runs; intended for tests.
func NewStaticEngineConfigHolder(cfg EngineConfig) *EngineConfigHolder {
	h := &EngineConfigHolder{}
	h.current.Store(cfg)
	return h
}

func validateEngineConfig(cfg EngineConfig) error {
	if cfg.WorkerCount <= 0 {
		return errors.New("engine.workerCount must be positive")
	}
	if cfg.QueueSize <= 0 {
		return errors.New("engine.queueSize must be positive")
	}
	if cfg.AnalyzeTimeout <= 0 || cfg.DeepAnalyzeTimeout <= 0 {
		return errors.New("engine timeouts must be positive")
	}
	if cfg.DefaultSEOScore < 0 || cfg.DefaultSEOScore > 100 ||
		cfg.DefaultAEOScore < 0 || cfg.DefaultAEOScore > 100 {
		return errors.New("engine default scores must be within 0-100")
	}
	return nil
}
