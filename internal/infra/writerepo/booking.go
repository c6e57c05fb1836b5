package writerepo

import (
	"context"
	"time"

	"settlement-core/internal/domain/booking"
	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"

	"github.com/google/uuid"
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) *BookingRepository {
	return &BookingRepository{db: dbtx}
}

const insertBookingSQL = `
INSERT INTO bookings (
	id, buyer_id, provider_id, status, payment_status, used_credit,
	notes, session_at, join_url, join_expires_at, checkout_session_id,
	charge_id, transfer_id, fee_cents, net_cents,
	reminder_1h_sent, reminder_5m_sent, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, $8, $9, $10, $11,
	$12, $13, $14, $15,
	FALSE, FALSE, now(), now()
)`

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	var chargeID, transferID string
	var feeCents, netCents int64
	if s := b.Settlement(); s != nil {
		chargeID = s.ChargeID
		transferID = s.TransferID
		feeCents = s.FeeCents
		netCents = s.NetCents
	}

	_, err := r.db.Exec(ctx, insertBookingSQL,
		b.ID(), b.BuyerID(), b.ProviderID(),
		b.Status().String(), b.PaymentStatus().String(), b.UsedCredit(),
		b.Notes(), b.SessionAt(), b.JoinURL(), b.JoinExpiresAt(), b.CheckoutSessionID(),
		chargeID, transferID, feeCents, netCents,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return infra.WrapRepoErr("booking references unknown participant", err, infra.KindForeignKeyViolated)
		}
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) SetCheckoutSession(ctx context.Context, bookingID uuid.UUID, sessionID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE bookings SET checkout_session_id = $2, updated_at = now() WHERE id = $1`,
		bookingID, sessionID,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to set checkout session", err)
	}
	return nil
}

const confirmBookingSQL = `
UPDATE bookings
SET status = 'confirmed',
	payment_status = 'paid',
	join_url = $2,
	join_expires_at = $3,
	charge_id = $4,
	transfer_id = $5,
	fee_cents = $6,
	net_cents = $7,
	updated_at = now()
WHERE id = $1 AND status = 'pending'`

// ConfirmIfPending is guarded on status so a replayed confirmation after
// the booking left pending is a no-op.
func (r *BookingRepository) ConfirmIfPending(ctx context.Context, bookingID uuid.UUID, joinURL string, joinExpiresAt time.Time, settlement booking.Settlement) (bool, error) {
	tag, err := r.db.Exec(ctx, confirmBookingSQL,
		bookingID, joinURL, joinExpiresAt,
		settlement.ChargeID, settlement.TransferID,
		settlement.FeeCents, settlement.NetCents,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to confirm booking", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *BookingRepository) MarkRefunded(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE bookings
		 SET status = 'refunded', payment_status = 'refunded', updated_at = now()
		 WHERE id = $1 AND status IN ('confirmed', 'completed')`,
		bookingID,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark booking refunded", err)
	}
	return tag.RowsAffected() == 1, nil
}

func reminderColumn(lead booking.ReminderLead) string {
	if lead == booking.ReminderLead5m {
		return "reminder_5m_sent"
	}
	return "reminder_1h_sent"
}

// MarkReminderSentIfUnset flips the sent flag for one lead time. The
// guarded UPDATE is what makes redundant sweeps safe: only the first
// caller sees a row change.
func (r *BookingRepository) MarkReminderSentIfUnset(ctx context.Context, bookingID uuid.UUID, lead booking.ReminderLead) (bool, error) {
	col := reminderColumn(lead)
	tag, err := r.db.Exec(ctx,
		`UPDATE bookings SET `+col+` = TRUE, updated_at = now()
		 WHERE id = $1 AND `+col+` = FALSE AND status = 'confirmed'`,
		bookingID,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark reminder sent", err)
	}
	return tag.RowsAffected() == 1, nil
}
