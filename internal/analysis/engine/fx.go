package engine

import (
	"github.com/traffictuner/traffictuner/internal/clock"
	"github.com/traffictuner/traffictuner/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("analysis.engine",
	fx.Provide(func(holder *config.EngineConfigHolder, clk clock.Clock) Engine {
		return NewHeuristic(holder, clk)
	}),
)
