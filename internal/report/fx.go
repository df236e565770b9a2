package report

import (
	"github.com/traffictuner/traffictuner/internal/report/repository"
	"github.com/traffictuner/traffictuner/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
