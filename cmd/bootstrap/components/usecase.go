package components

import (
	"settlement-core/internal/pkg/clock"
	"settlement-core/internal/pkg/config"
	"settlement-core/internal/usecase"
	"settlement-core/internal/usecase/commands"
	"settlement-core/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingUseCase,
		commands.NewWebhookUseCase,
		commands.NewReminderUseCase,
		commands.NewDisputeUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		func(cfg config.Config) usecase.TokenValidator {
			return usecase.NewTokenValidator(cfg.JWT)
		},
	),
)
