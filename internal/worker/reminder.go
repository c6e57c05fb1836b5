// Package worker holds the background loops the settlement core runs
// alongside the HTTP server: the reminder sweeper and the outbox drainer.
package worker

import (
	"context"
	"log/slog"
	"time"

	"settlement-core/internal/usecase/commands"
)

// ReminderWorker runs the reminder sweep on a fixed interval. Sweeps are
// idempotent, so the interval is a freshness knob, not a correctness one.
type ReminderWorker struct {
	reminders commands.ReminderCommands
	interval  time.Duration
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewReminderWorker(reminders commands.ReminderCommands, interval time.Duration, logger *slog.Logger) *ReminderWorker {
	return &ReminderWorker{
		reminders: reminders,
		interval:  interval,
		logger:    logger,
	}
}

func (w *ReminderWorker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx)
}

func (w *ReminderWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *ReminderWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := w.reminders.SweepReminders(ctx)
			if err != nil {
				w.logger.Error("reminder sweep failed", "error", err.Error())
				continue
			}
			if result.TotalSent() > 0 || result.TotalSkipped() > 0 {
				attrs := []any{"sent", result.TotalSent(), "skipped", result.TotalSkipped()}
				for lead, counts := range result.ByLead {
					attrs = append(attrs, "sent_"+string(lead), counts.Sent)
				}
				w.logger.Info("reminder sweep finished", attrs...)
			}
		}
	}
}
