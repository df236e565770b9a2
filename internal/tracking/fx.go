package tracking

import (
	"github.com/traffictuner/traffictuner/internal/tracking/repository"
	"github.com/traffictuner/traffictuner/internal/tracking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tracking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
