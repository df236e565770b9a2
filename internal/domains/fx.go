package domains

import (
	"github.com/traffictuner/traffictuner/internal/domains/repository"
	"github.com/traffictuner/traffictuner/internal/domains/service"
	"go.uber.org/fx"
)

var Module = fx.Module("domains.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
