package commands

import (
	"context"
	"encoding/json"
	"log/slog"

	"settlement-core/internal/domain/booking"
	"settlement-core/internal/domain/checkout"
	"settlement-core/internal/domain/credit"
	"settlement-core/internal/domain/ledger"
	"settlement-core/internal/gateway"
	"settlement-core/internal/infra"
	"settlement-core/internal/pkg/clock"
	"settlement-core/internal/pkg/errs"
	"settlement-core/internal/pkg/meeting"
	"settlement-core/internal/usecase/shared"
)

var (
	ErrBadWebhookPayload = errs.New("malformed webhook payload")
	ErrWebhookProcessing = errs.New("webhook processing failed")
)

type WebhookCommands interface {
	// HandleGatewayEvent verifies, parses, and applies one webhook
	// delivery. A nil return means the gateway must not redeliver;
	// any error means it should.
	HandleGatewayEvent(ctx context.Context, payload []byte, signatureHeader string) error
}

type webhookUseCaseImpl struct {
	uow    shared.UnitOfWork
	gw     gateway.Gateway
	clock  clock.Clock
	logger *slog.Logger
}

func NewWebhookUseCase(uow shared.UnitOfWork, gw gateway.Gateway, clk clock.Clock, logger *slog.Logger) WebhookCommands {
	return &webhookUseCaseImpl{
		uow:    uow,
		gw:     gw,
		clock:  clk,
		logger: logger,
	}
}

func (u *webhookUseCaseImpl) HandleGatewayEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	if err := u.gw.VerifySignature(payload, signatureHeader); err != nil {
		return err
	}

	evt, err := gateway.ParseEvent(payload)
	if err != nil {
		return errs.Mark(err, ErrBadWebhookPayload)
	}

	switch evt.Type {
	case gateway.EventAccountUpdated:
		return u.applyAccountUpdate(ctx, evt)
	case gateway.EventCheckoutCompleted:
		return u.applyCheckoutCompleted(ctx, evt)
	default:
		u.logger.Debug("ignoring webhook event", "event_id", evt.ID, "type", evt.Type)
		return nil
	}
}

func (u *webhookUseCaseImpl) applyAccountUpdate(ctx context.Context, evt *gateway.Event) error {
	account, err := evt.Account()
	if err != nil {
		return errs.Mark(err, ErrBadWebhookPayload)
	}

	payoutEnabled := account.ChargesEnabled && account.PayoutsEnabled
	onboardingRequired := len(account.Requirements.CurrentlyDue) > 0

	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		fresh, gateErr := tx.ProcessedEvents().TryInsert(ctx, evt.ID)
		if gateErr != nil {
			return gateErr
		}
		if !fresh {
			return nil
		}
		return tx.Providers().UpsertPayoutStatus(ctx, account.ID, payoutEnabled, onboardingRequired)
	})
	if err != nil {
		return errs.Mark(err, ErrWebhookProcessing)
	}
	return nil
}

func (u *webhookUseCaseImpl) applyCheckoutCompleted(ctx context.Context, evt *gateway.Event) error {
	session, err := evt.Session()
	if err != nil {
		return errs.Mark(err, ErrBadWebhookPayload)
	}

	md, err := checkout.Decode(session.Metadata)
	if err != nil {
		// Metadata we stamped ourselves should always decode; a failure
		// here is a bug, not something redelivery can fix.
		u.logger.Error("undecodable checkout metadata",
			"event_id", evt.ID,
			"session_id", session.ID,
			"error", err.Error())
		return nil
	}

	switch m := md.(type) {
	case checkout.SessionBooking:
		return u.settleSessionBooking(ctx, evt.ID, session, m)
	case checkout.BundlePurchase:
		return u.recordBundlePurchase(ctx, evt.ID, m)
	case checkout.MarketplaceOrder:
		return u.settleMarketplaceOrder(ctx, evt.ID, session, m)
	default:
		return nil
	}
}

// settleSessionBooking confirms the pending booking the session paid for.
// The charge is retrieved before the transaction so settled amounts come
// from the gateway's record, not the session request.
func (u *webhookUseCaseImpl) settleSessionBooking(ctx context.Context, eventID string, session *gateway.SessionObject, md checkout.SessionBooking) error {
	charge, err := u.gw.RetrieveCharge(ctx, session.PaymentIntent)
	if err != nil {
		return err
	}

	provider, err := u.uow.Reads().ProviderByID(ctx, md.ProviderID)
	if err != nil {
		return errs.Mark(err, ErrWebhookProcessing)
	}
	joinURL := meeting.Resolve(provider.MeetingProvider, provider.MeetingBaseURL, md.BookingID)
	joinExpiresAt := u.clock.Now().Add(booking.JoinWindow)

	settlement := booking.Settlement{
		ChargeID:   charge.ID,
		TransferID: charge.TransferID,
		FeeCents:   charge.ApplicationFeeCents,
		NetCents:   charge.NetCents(),
	}

	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		fresh, gateErr := tx.ProcessedEvents().TryInsert(ctx, eventID)
		if gateErr != nil {
			return gateErr
		}
		if !fresh {
			return nil
		}

		confirmed, confirmErr := tx.Bookings().ConfirmIfPending(ctx, md.BookingID, joinURL, joinExpiresAt, settlement)
		if confirmErr != nil {
			return confirmErr
		}
		if !confirmed {
			u.logger.Warn("checkout completed for a non-pending booking",
				"event_id", eventID,
				"booking_id", md.BookingID)
			return nil
		}

		snap, readErr := tx.Reads().BookingByID(ctx, md.BookingID)
		if readErr != nil {
			return readErr
		}
		if notifyErr := tx.Notifications().Insert(ctx, snap.BuyerID,
			"booking_confirmed", "Booking confirmed",
			"Your session is booked. The join link is ready."); notifyErr != nil {
			return notifyErr
		}

		jobPayload, marshalErr := json.Marshal(map[string]any{
			"booking_id": md.BookingID,
			"buyer_id":   snap.BuyerID,
		})
		if marshalErr != nil {
			return marshalErr
		}
		return tx.Outbox().CreateJob(ctx, "achievement", "session_booked", jobPayload, u.clock.Now())
	})
	if err != nil {
		return errs.Mark(err, ErrWebhookProcessing)
	}
	return nil
}

// recordBundlePurchase creates the prepaid credit bundle a completed
// bundle checkout paid for.
func (u *webhookUseCaseImpl) recordBundlePurchase(ctx context.Context, eventID string, md checkout.BundlePurchase) error {
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		fresh, gateErr := tx.ProcessedEvents().TryInsert(ctx, eventID)
		if gateErr != nil {
			return gateErr
		}
		if !fresh {
			return nil
		}

		bundle, newErr := credit.NewBundle(md.BuyerID, md.ProviderID, md.BundleSize, md.PriceCents, u.clock.Now())
		if newErr != nil {
			return newErr
		}
		if insertErr := tx.Credits().Insert(ctx, bundle); insertErr != nil {
			return insertErr
		}
		return tx.Notifications().Insert(ctx, md.BuyerID,
			"bundle_purchased", "Credits added",
			"Your session credits are ready to use.")
	})
	if err != nil {
		return errs.Mark(err, ErrWebhookProcessing)
	}
	return nil
}

// settleMarketplaceOrder marks the order paid and writes its ledger
// entries and balance movement in one transaction. Digital orders release
// funds immediately; physical orders hold them until fulfillment.
func (u *webhookUseCaseImpl) settleMarketplaceOrder(ctx context.Context, eventID string, session *gateway.SessionObject, md checkout.MarketplaceOrder) error {
	charge, err := u.gw.RetrieveCharge(ctx, session.PaymentIntent)
	if err != nil {
		return err
	}

	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		fresh, gateErr := tx.ProcessedEvents().TryInsert(ctx, eventID)
		if gateErr != nil {
			return gateErr
		}
		if !fresh {
			return nil
		}

		order, readErr := tx.Reads().OrderByID(ctx, md.OrderID)
		if readErr != nil {
			if infra.IsKind(readErr, infra.KindNotFound) {
				u.logger.Error("checkout completed for unknown order",
					"event_id", eventID,
					"order_id", md.OrderID)
				return nil
			}
			return readErr
		}

		updated, markErr := tx.Orders().MarkPaidIfPending(ctx, md.OrderID, charge.ID)
		if markErr != nil {
			return markErr
		}
		if !updated {
			u.logger.Warn("checkout completed for a non-pending order",
				"event_id", eventID,
				"order_id", md.OrderID)
			return nil
		}

		sale, saleErr := ledger.NewSale(md.SellerID, md.OrderID, order.SubtotalCents, "order sale")
		if saleErr != nil {
			return saleErr
		}
		commission, commErr := ledger.NewCommission(md.SellerID, md.OrderID, order.PlatformFeeCents, "platform commission")
		if commErr != nil {
			return commErr
		}
		entries := []ledger.Entry{sale, commission}
		if insertErr := tx.Ledger().InsertEntries(ctx, entries); insertErr != nil {
			return insertErr
		}

		net := ledger.Sum(entries)
		var topic string
		if order.Digital {
			if balErr := tx.Ledger().ApplyBalanceDelta(ctx, md.SellerID, net, 0); balErr != nil {
				return balErr
			}
			topic = "order_delivery"
		} else {
			if balErr := tx.Ledger().ApplyBalanceDelta(ctx, md.SellerID, 0, net); balErr != nil {
				return balErr
			}
			topic = "order_fulfillment"
		}

		jobPayload, marshalErr := json.Marshal(map[string]any{
			"order_id":  md.OrderID,
			"seller_id": md.SellerID,
		})
		if marshalErr != nil {
			return marshalErr
		}
		return tx.Outbox().CreateJob(ctx, "email", topic, jobPayload, u.clock.Now())
	})
	if err != nil {
		return errs.Mark(err, ErrWebhookProcessing)
	}
	return nil
}
