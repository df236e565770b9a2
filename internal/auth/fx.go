package auth

import (
	"github.com/traffictuner/traffictuner/internal/auth/repository"
	"github.com/traffictuner/traffictuner/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
