package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/traffictuner/traffictuner/internal/adminstats"
	"github.com/traffictuner/traffictuner/internal/analysis"
	"github.com/traffictuner/traffictuner/internal/apikey"
	"github.com/traffictuner/traffictuner/internal/auth"
	"github.com/traffictuner/traffictuner/internal/auth/session"
	"github.com/traffictuner/traffictuner/internal/authorization"
	"github.com/traffictuner/traffictuner/internal/clock"
	"github.com/traffictuner/traffictuner/internal/cloudmetrics"
	"github.com/traffictuner/traffictuner/internal/config"
	"github.com/traffictuner/traffictuner/internal/credits"
	"github.com/traffictuner/traffictuner/internal/domains"
	"github.com/traffictuner/traffictuner/internal/migration"
	"github.com/traffictuner/traffictuner/internal/observability"
	"github.com/traffictuner/traffictuner/internal/providers"
	"github.com/traffictuner/traffictuner/internal/ratelimit"
	"github.com/traffictuner/traffictuner/internal/report"
	"github.com/traffictuner/traffictuner/internal/server"
	"github.com/traffictuner/traffictuner/internal/tracking"
	"github.com/traffictuner/traffictuner/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,

		auth.Module,
		session.Module,
		authorization.Module,
		apikey.Module,
		credits.Module,
		domains.Module,
		analysis.Module,
		report.Module,
		tracking.Module,
		adminstats.Module,

		providers.Module,
		ratelimit.Module,
		cloudmetrics.Module,

		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
