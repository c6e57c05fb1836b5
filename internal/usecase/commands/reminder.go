package commands

import (
	"context"
	"fmt"
	"log/slog"

	"settlement-core/internal/domain/booking"
	"settlement-core/internal/notify"
	"settlement-core/internal/pkg/clock"
	"settlement-core/internal/pkg/errs"
	"settlement-core/internal/usecase/shared"
)

var ErrReminderSweep = errs.New("reminder sweep failed")

// LeadCount tallies one lead time within a sweep.
type LeadCount struct {
	Sent    int
	Skipped int
}

// SweepResult reports one sweep pass, broken down by lead time. The two
// windows behave differently in production (the 5m window is tighter and
// far more sensitive to sweep cadence), so the counts stay separate.
type SweepResult struct {
	ByLead map[booking.ReminderLead]*LeadCount
}

func newSweepResult() *SweepResult {
	result := &SweepResult{ByLead: make(map[booking.ReminderLead]*LeadCount)}
	for _, lead := range booking.Leads() {
		result.ByLead[lead] = &LeadCount{}
	}
	return result
}

func (r *SweepResult) TotalSent() int {
	total := 0
	for _, c := range r.ByLead {
		total += c.Sent
	}
	return total
}

func (r *SweepResult) TotalSkipped() int {
	total := 0
	for _, c := range r.ByLead {
		total += c.Skipped
	}
	return total
}

type ReminderCommands interface {
	// SweepReminders finds confirmed bookings inside any reminder window
	// and sends at most one reminder per booking per lead time. Safe to
	// run concurrently and on any schedule.
	SweepReminders(ctx context.Context) (*SweepResult, error)
}

type reminderUseCaseImpl struct {
	uow    shared.UnitOfWork
	mailer notify.Mailer
	clock  clock.Clock
	logger *slog.Logger
}

func NewReminderUseCase(uow shared.UnitOfWork, mailer notify.Mailer, clk clock.Clock, logger *slog.Logger) ReminderCommands {
	return &reminderUseCaseImpl{
		uow:    uow,
		mailer: mailer,
		clock:  clk,
		logger: logger,
	}
}

func (u *reminderUseCaseImpl) SweepReminders(ctx context.Context) (*SweepResult, error) {
	now := u.clock.Now()
	result := newSweepResult()

	for _, lead := range booking.Leads() {
		counts := result.ByLead[lead]
		from, to := lead.Window(now)

		targets, err := u.uow.Reads().DueReminders(ctx, lead, from, to)
		if err != nil {
			return nil, errs.Mark(err, ErrReminderSweep)
		}

		for _, target := range targets {
			sent, err := u.sendReminder(ctx, lead, target)
			if err != nil {
				// One bad booking must not sink the rest of the sweep.
				u.logger.Error("reminder failed",
					"booking_id", target.BookingID,
					"lead", string(lead),
					"error", err.Error())
				continue
			}
			if sent {
				counts.Sent++
			} else {
				counts.Skipped++
			}
		}
	}

	return result, nil
}

// sendReminder claims the per-lead flag and writes both in-app
// notifications in one transaction; the flag write is the commit point
// that makes overlapping sweeps send at most once. Email goes out after
// commit and is best-effort.
func (u *reminderUseCaseImpl) sendReminder(ctx context.Context, lead booking.ReminderLead, target shared.ReminderTarget) (bool, error) {
	title, body := reminderCopy(lead, target)

	var claimed bool
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		got, markErr := tx.Bookings().MarkReminderSentIfUnset(ctx, target.BookingID, lead)
		if markErr != nil {
			return markErr
		}
		if !got {
			return nil
		}
		claimed = true

		if notifyErr := tx.Notifications().Insert(ctx, target.Buyer.ID, "session_reminder", title, body); notifyErr != nil {
			return notifyErr
		}
		return tx.Notifications().Insert(ctx, target.Provider.ID, "session_reminder", title, body)
	})
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	for _, contact := range []shared.UserContact{target.Buyer, target.Provider} {
		if mailErr := u.mailer.Send(ctx, contact.Email, contact.DisplayName, title, body); mailErr != nil {
			u.logger.Warn("reminder email not delivered",
				"booking_id", target.BookingID,
				"to", contact.Email,
				"error", mailErr.Error())
		}
	}
	return true, nil
}

func reminderCopy(lead booking.ReminderLead, target shared.ReminderTarget) (title, body string) {
	switch lead {
	case booking.ReminderLead5m:
		title = "Your session starts in 5 minutes"
	default:
		title = "Your session starts in 1 hour"
	}
	body = fmt.Sprintf("Session at %s.", target.SessionAt.Format("Mon Jan 2 15:04 MST"))
	if target.JoinURL != "" {
		body += " Join: " + target.JoinURL
	}
	return title, body
}
