package apikey

import (
	"github.com/traffictuner/traffictuner/internal/apikey/repository"
	"github.com/traffictuner/traffictuner/internal/apikey/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apikey.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
