package adminstats

import (
	"github.com/traffictuner/traffictuner/internal/adminstats/repository"
	"github.com/traffictuner/traffictuner/internal/adminstats/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adminstats.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
