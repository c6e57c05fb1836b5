package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"settlement-core/internal/infra/writerepo"
	"settlement-core/internal/notify"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

const claimBatchSize = 20

// OutboxWorker drains notification_jobs. Jobs are enqueued inside the
// business transactions that justify them, so everything seen here is
// already committed fact; delivery failures only requeue the job.
type OutboxWorker struct {
	outbox   *writerepo.OutboxRepository
	reads    shared.CommandReads
	mailer   notify.Mailer
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewOutboxWorker(
	outbox *writerepo.OutboxRepository,
	reads shared.CommandReads,
	mailer notify.Mailer,
	interval time.Duration,
	logger *slog.Logger,
) *OutboxWorker {
	return &OutboxWorker{
		outbox:   outbox,
		reads:    reads,
		mailer:   mailer,
		interval: interval,
		logger:   logger,
	}
}

func (w *OutboxWorker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx)
}

func (w *OutboxWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *OutboxWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	jobs, err := w.outbox.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		w.logger.Error("failed to claim outbox jobs", "error", err.Error())
		return
	}

	for _, job := range jobs {
		if err := w.dispatch(ctx, job); err != nil {
			w.logger.Warn("outbox job failed",
				"job_id", job.ID,
				"topic", job.Topic,
				"error", err.Error())
			if markErr := w.outbox.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
				w.logger.Error("failed to requeue outbox job", "job_id", job.ID, "error", markErr.Error())
			}
			continue
		}
		if markErr := w.outbox.MarkDone(ctx, job.ID); markErr != nil {
			w.logger.Error("failed to complete outbox job", "job_id", job.ID, "error", markErr.Error())
		}
	}
}

func (w *OutboxWorker) dispatch(ctx context.Context, job writerepo.OutboxJob) error {
	switch job.Topic {
	case "session_booked":
		// Achievement-style jobs only need to be recorded for now.
		w.logger.Info("session booked", "job_id", job.ID)
		return nil
	case "order_delivery":
		return w.sendSellerMail(ctx, job,
			"Order paid: deliver your item",
			"An order was paid. The buyer is waiting for the digital delivery.")
	case "order_fulfillment":
		return w.sendSellerMail(ctx, job,
			"Order paid: ship your item",
			"An order was paid. Funds are held until it ships.")
	case "dispute_resolved":
		return w.sendDisputeMail(ctx, job)
	default:
		w.logger.Warn("unknown outbox topic dropped", "job_id", job.ID, "topic", job.Topic)
		return nil
	}
}

func (w *OutboxWorker) sendSellerMail(ctx context.Context, job writerepo.OutboxJob, subject, body string) error {
	var payload struct {
		SellerID uuid.UUID `json:"seller_id"`
	}
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return err
	}
	contact, err := w.reads.UserContactByID(ctx, payload.SellerID)
	if err != nil {
		return err
	}
	return w.mailer.Send(ctx, contact.Email, contact.DisplayName, subject, body)
}

func (w *OutboxWorker) sendDisputeMail(ctx context.Context, job writerepo.OutboxJob) error {
	var payload struct {
		ClaimantID   uuid.UUID `json:"claimant_id"`
		RespondentID uuid.UUID `json:"respondent_id"`
		Resolution   string    `json:"resolution"`
		AmountCents  int64     `json:"amount_cents"`
		Note         string    `json:"note"`
	}
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return err
	}

	body := fmt.Sprintf("Resolution: %s. Amount: $%d.%02d.",
		payload.Resolution, payload.AmountCents/100, payload.AmountCents%100)
	if payload.Note != "" {
		body += " Note: " + payload.Note
	}
	body += " See your account for details."

	for userID, subject := range map[uuid.UUID]string{
		payload.ClaimantID:   "Your dispute was resolved",
		payload.RespondentID: "A dispute against you was resolved",
	} {
		contact, err := w.reads.UserContactByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := w.mailer.Send(ctx, contact.Email, contact.DisplayName, subject, body); err != nil {
			return err
		}
	}
	return nil
}
