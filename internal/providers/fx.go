package providers

import (
	"github.com/traffictuner/traffictuner/internal/providers/email"
	"github.com/traffictuner/traffictuner/internal/providers/pdf"
	"github.com/traffictuner/traffictuner/internal/providers/slack"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
	slack.Module,
)
