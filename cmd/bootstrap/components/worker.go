package components

import (
	"context"
	"log/slog"

	"settlement-core/internal/infra/writerepo"
	"settlement-core/internal/notify"
	"settlement-core/internal/pkg/config"
	"settlement-core/internal/usecase/commands"
	"settlement-core/internal/usecase/shared"
	"settlement-core/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		func(reminders commands.ReminderCommands, cfg config.Config, logger *slog.Logger) *worker.ReminderWorker {
			return worker.NewReminderWorker(reminders, cfg.Reminder.SweepInterval, logger)
		},
		func(outbox *writerepo.OutboxRepository, reads shared.CommandReads, mailer notify.Mailer, cfg config.Config, logger *slog.Logger) *worker.OutboxWorker {
			return worker.NewOutboxWorker(outbox, reads, mailer, cfg.Reminder.OutboxPoll, logger)
		},
	),
	fx.Invoke(startWorkers),
)

func startWorkers(lc fx.Lifecycle, reminder *worker.ReminderWorker, outbox *worker.OutboxWorker) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			reminder.Start()
			outbox.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			reminder.Stop()
			outbox.Stop()
			return nil
		},
	})
}
