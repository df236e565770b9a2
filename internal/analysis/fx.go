package analysis

import (
	"github.com/traffictuner/traffictuner/internal/analysis/domain"
	"github.com/traffictuner/traffictuner/internal/analysis/engine"
	"github.com/traffictuner/traffictuner/internal/analysis/repository"
	"github.com/traffictuner/traffictuner/internal/analysis/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analysis.service",
	engine.Module,
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s *service.Service) domain.Service { return s }),
	fx.Invoke(service.RegisterLifecycle),
)
