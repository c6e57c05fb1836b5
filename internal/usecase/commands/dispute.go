package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"settlement-core/internal/domain/ledger"
	"settlement-core/internal/infra"
	"settlement-core/internal/pkg/clock"
	"settlement-core/internal/pkg/errs"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrDisputeNotFound        = errs.New("dispute not found")
	ErrDisputeAlreadyResolved = errs.New("dispute already resolved")
	ErrNothingToRefund        = errs.New("disputed item is not in a refundable state")
)

type ResolveDisputeInput struct {
	DisputeID uuid.UUID
	Refund    bool
	Note      string
}

type DisputeCommands interface {
	// ResolveDispute settles an open dispute either way. A refund reverses
	// the item, the ledger, and the seller balance in one transaction; a
	// rejection only closes the dispute.
	ResolveDispute(ctx context.Context, in ResolveDisputeInput) error
}

type disputeUseCaseImpl struct {
	uow    shared.UnitOfWork
	clock  clock.Clock
	logger *slog.Logger
}

func NewDisputeUseCase(uow shared.UnitOfWork, clk clock.Clock, logger *slog.Logger) DisputeCommands {
	return &disputeUseCaseImpl{
		uow:    uow,
		clock:  clk,
		logger: logger,
	}
}

func (u *disputeUseCaseImpl) ResolveDispute(ctx context.Context, in ResolveDisputeInput) error {
	dispute, err := u.uow.Reads().DisputeByID(ctx, in.DisputeID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrDisputeNotFound
		}
		return errs.Mark(err, ErrDatabaseOperation)
	}

	if in.Refund {
		return u.resolveWithRefund(ctx, dispute, in.Note)
	}
	return u.resolveWithRejection(ctx, dispute, in.Note)
}

func (u *disputeUseCaseImpl) resolveWithRefund(ctx context.Context, dispute *shared.DisputeSnapshot, note string) error {
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		resolved, resolveErr := tx.Disputes().ResolveIfOpen(ctx, dispute.ID, "refunded", note)
		if resolveErr != nil {
			return resolveErr
		}
		if !resolved {
			return ErrDisputeAlreadyResolved
		}

		refundRef, refundErr := u.refundDisputedItem(ctx, tx, dispute)
		if refundErr != nil {
			return refundErr
		}

		entry, entryErr := ledger.NewRefund(dispute.RespondentID, refundRef, dispute.AmountCents, "dispute refund")
		if entryErr != nil {
			return entryErr
		}
		if insertErr := tx.Ledger().InsertEntries(ctx, []ledger.Entry{entry}); insertErr != nil {
			return insertErr
		}
		if balErr := tx.Ledger().ApplyBalanceDelta(ctx, dispute.RespondentID, -dispute.AmountCents, 0); balErr != nil {
			return balErr
		}

		amount := formatCents(dispute.AmountCents)
		if notifyErr := tx.Notifications().Insert(ctx, dispute.ClaimantID,
			"dispute_resolved", "Dispute resolved: refund issued",
			withNote("Your dispute was accepted and a refund of "+amount+" has been issued.", note)); notifyErr != nil {
			return notifyErr
		}
		if notifyErr := tx.Notifications().Insert(ctx, dispute.RespondentID,
			"dispute_resolved", "Dispute resolved against you",
			withNote("A dispute was resolved with a refund of "+amount+"; your balance has been adjusted.", note)); notifyErr != nil {
			return notifyErr
		}

		jobPayload, marshalErr := json.Marshal(map[string]any{
			"dispute_id":    dispute.ID,
			"resolution":    "refunded",
			"amount_cents":  dispute.AmountCents,
			"note":          note,
			"claimant_id":   dispute.ClaimantID,
			"respondent_id": dispute.RespondentID,
		})
		if marshalErr != nil {
			return marshalErr
		}
		return tx.Outbox().CreateJob(ctx, "email", "dispute_resolved", jobPayload, u.clock.Now())
	})
	if err != nil {
		switch {
		case errs.Is(err, ErrDisputeAlreadyResolved):
			return ErrDisputeAlreadyResolved
		case errs.Is(err, ErrNothingToRefund):
			return ErrNothingToRefund
		default:
			return errs.Mark(err, ErrDatabaseOperation)
		}
	}
	return nil
}

// refundDisputedItem reverses whichever item the dispute points at and
// returns the id used to reference the refund in the ledger.
func (u *disputeUseCaseImpl) refundDisputedItem(ctx context.Context, tx shared.Tx, dispute *shared.DisputeSnapshot) (uuid.UUID, error) {
	switch {
	case dispute.BookingID != nil:
		refunded, err := tx.Bookings().MarkRefunded(ctx, *dispute.BookingID)
		if err != nil {
			return uuid.Nil, err
		}
		if !refunded {
			return uuid.Nil, ErrNothingToRefund
		}
		return *dispute.BookingID, nil

	case dispute.OrderID != nil:
		refunded, err := tx.Orders().MarkRefunded(ctx, *dispute.OrderID)
		if err != nil {
			return uuid.Nil, err
		}
		if !refunded {
			return uuid.Nil, ErrNothingToRefund
		}
		return *dispute.OrderID, nil

	default:
		return uuid.Nil, errs.New("dispute references neither booking nor order")
	}
}

// formatCents renders a cent amount as dollars, e.g. 5000 -> "$50.00".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// withNote appends the admin's resolution note, when one was given.
func withNote(body, note string) string {
	if note == "" {
		return body
	}
	return body + " Note: " + note
}

func (u *disputeUseCaseImpl) resolveWithRejection(ctx context.Context, dispute *shared.DisputeSnapshot, note string) error {
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		resolved, resolveErr := tx.Disputes().ResolveIfOpen(ctx, dispute.ID, "rejected", note)
		if resolveErr != nil {
			return resolveErr
		}
		if !resolved {
			return ErrDisputeAlreadyResolved
		}
		return tx.Notifications().Insert(ctx, dispute.ClaimantID,
			"dispute_resolved", "Dispute resolved: rejected",
			withNote("Your dispute was reviewed and rejected.", note))
	})
	if err != nil {
		if errs.Is(err, ErrDisputeAlreadyResolved) {
			return ErrDisputeAlreadyResolved
		}
		return errs.Mark(err, ErrDatabaseOperation)
	}
	return nil
}
