package bootstrap

import (
	"log/slog"

	"settlement-core/internal/gateway"
	"settlement-core/internal/notify"
	"settlement-core/internal/pkg/config"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		func(cfg config.Config, logger *slog.Logger) gateway.Gateway {
			return gateway.NewClient(cfg.Gateway, logger)
		},
		func(cfg config.Config, logger *slog.Logger) notify.Mailer {
			return notify.NewMailer(cfg.Mail, logger)
		},
	),
)
