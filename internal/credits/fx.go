package credits

import (
	"github.com/traffictuner/traffictuner/internal/credits/repository"
	"github.com/traffictuner/traffictuner/internal/credits/service"
	"go.uber.org/fx"
)

var Module = fx.Module("credits.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
