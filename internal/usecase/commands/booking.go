package commands

import (
	"context"
	"log/slog"
	"time"

	"settlement-core/internal/domain/booking"
	"settlement-core/internal/domain/checkout"
	"settlement-core/internal/gateway"
	"settlement-core/internal/infra"
	"settlement-core/internal/pkg/clock"
	"settlement-core/internal/pkg/errs"
	"settlement-core/internal/pkg/meeting"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound       = errs.New("provider not found")
	ErrProviderNotPayoutReady = errs.New("provider cannot receive payouts yet")
	ErrSessionInPast          = errs.New("session time is in the past")
	ErrSelfBooking            = errs.New("cannot book a session with yourself")
	ErrCheckoutFailed         = errs.New("failed to create checkout session")
	ErrDatabaseOperation      = errs.New("database operation failed")
)

// BookingOutcome reports how a booking request was funded.
type BookingOutcome struct {
	BookingID   uuid.UUID
	UsedCredit  bool
	CreditsLeft int32
	// CheckoutURL is set only on the payment path.
	CheckoutURL string
}

type CreateBookingInput struct {
	BuyerID    uuid.UUID
	ProviderID uuid.UUID
	SessionAt  time.Time
	Notes      string
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingOutcome, error)
}

type bookingUseCaseImpl struct {
	uow    shared.UnitOfWork
	gw     gateway.Gateway
	clock  clock.Clock
	logger *slog.Logger
}

func NewBookingUseCase(uow shared.UnitOfWork, gw gateway.Gateway, clk clock.Clock, logger *slog.Logger) BookingCommands {
	return &bookingUseCaseImpl{
		uow:    uow,
		gw:     gw,
		clock:  clk,
		logger: logger,
	}
}

// CreateBooking tries to fund the session from the buyer's oldest credit
// bundle; only when no credit exists does it fall back to a checkout
// session. Credit consumption and booking creation are one transaction,
// so a crash can never leave a spent credit without its booking.
func (u *bookingUseCaseImpl) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingOutcome, error) {
	now := u.clock.Now()
	if !in.SessionAt.After(now) {
		return nil, ErrSessionInPast
	}

	provider, err := u.uow.Reads().ProviderByID(ctx, in.ProviderID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperation)
	}

	outcome := &BookingOutcome{}
	var pending *booking.Booking

	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		consumption, consumeErr := tx.Credits().ConsumeOldest(ctx, in.BuyerID, in.ProviderID)
		if consumeErr == nil {
			b, newErr := booking.NewCreditFunded(in.BuyerID, in.ProviderID, in.SessionAt, in.Notes)
			if newErr != nil {
				return newErr
			}
			// A credit-funded booking is confirmed immediately, so the
			// buyer must leave with a join link just like a paid one.
			joinURL := meeting.Resolve(provider.MeetingProvider, provider.MeetingBaseURL, b.ID())
			if linkErr := b.IssueJoinLink(joinURL, now); linkErr != nil {
				return linkErr
			}
			if createErr := tx.Bookings().Create(ctx, b); createErr != nil {
				return createErr
			}
			outcome.BookingID = b.ID()
			outcome.UsedCredit = true
			outcome.CreditsLeft = consumption.CreditsLeft
			return nil
		}
		if !infra.IsKind(consumeErr, infra.KindNotFound) {
			return consumeErr
		}

		// Payment path. Checking payout readiness before inserting keeps
		// unfundable bookings out of the table entirely.
		if !provider.PayoutReady() {
			return ErrProviderNotPayoutReady
		}

		b, newErr := booking.NewPending(in.BuyerID, in.ProviderID, in.SessionAt, in.Notes)
		if newErr != nil {
			return newErr
		}
		if createErr := tx.Bookings().Create(ctx, b); createErr != nil {
			return createErr
		}
		pending = b
		outcome.BookingID = b.ID()
		return nil
	})
	if err != nil {
		switch {
		case errs.Is(err, ErrProviderNotPayoutReady):
			return nil, ErrProviderNotPayoutReady
		case errs.Is(err, booking.ErrSameParticipant):
			return nil, ErrSelfBooking
		default:
			return nil, errs.Mark(err, ErrDatabaseOperation)
		}
	}

	if pending == nil {
		return outcome, nil
	}

	// Checkout happens after commit: a gateway failure here leaves a
	// pending booking that simply never confirms, not a dangling session.
	quote := gateway.QuoteFor(provider.SessionPriceCents)
	session, err := u.gw.CreateCheckoutSession(ctx, gateway.CheckoutParams{
		AmountCents:          quote.UnitAmountCents,
		Description:          "Session with " + provider.DisplayName,
		ApplicationFeeCents:  quote.FeeCents,
		DestinationAccountID: provider.GatewayAccountID,
		Metadata: checkout.Encode(checkout.SessionBooking{
			BookingID:  pending.ID(),
			ProviderID: provider.ID,
		}),
	})
	if err != nil {
		return nil, errs.Mark(err, ErrCheckoutFailed)
	}

	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Bookings().SetCheckoutSession(ctx, pending.ID(), session.ID)
	})
	if err != nil {
		u.logger.Error("failed to persist checkout session id",
			"booking_id", pending.ID(),
			"session_id", session.ID,
			"error", err.Error())
		return nil, errs.Mark(err, ErrDatabaseOperation)
	}

	outcome.CheckoutURL = session.URL
	return outcome, nil
}
