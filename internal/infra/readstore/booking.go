package readstore

import (
	"context"
	"time"

	"settlement-core/internal/domain/booking"
	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: dbtx}
}

// BookingRow is the raw command-side projection of one booking.
type BookingRow struct {
	ID                uuid.UUID
	BuyerID           uuid.UUID
	ProviderID        uuid.UUID
	Status            string
	PaymentStatus     string
	UsedCredit        bool
	SessionAt         time.Time
	CheckoutSessionID string
	NetCents          int64
}

// BookingView is the API-facing projection for the query side.
type BookingView struct {
	ID            uuid.UUID  `json:"id"`
	BuyerID       uuid.UUID  `json:"buyer_id"`
	ProviderID    uuid.UUID  `json:"provider_id"`
	ProviderName  string     `json:"provider_name"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	UsedCredit    bool       `json:"used_credit"`
	SessionAt     time.Time  `json:"session_at"`
	JoinURL       string     `json:"join_url,omitempty"`
	JoinExpiresAt *time.Time `json:"join_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

const findBookingSQL = `
SELECT id, buyer_id, provider_id, status, payment_status, used_credit,
	session_at, COALESCE(checkout_session_id, ''), COALESCE(net_cents, 0)
FROM bookings
WHERE id = $1`

func (s *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*BookingRow, error) {
	var row BookingRow
	err := s.db.QueryRow(ctx, findBookingSQL, id).Scan(
		&row.ID, &row.BuyerID, &row.ProviderID,
		&row.Status, &row.PaymentStatus, &row.UsedCredit,
		&row.SessionAt, &row.CheckoutSessionID, &row.NetCents,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return &row, nil
}

const bookingViewSQL = `
SELECT b.id, b.buyer_id, b.provider_id, p.display_name,
	b.status, b.payment_status, b.used_credit, b.session_at,
	COALESCE(b.join_url, ''), b.join_expires_at, b.created_at
FROM bookings b
JOIN providers p ON p.id = b.provider_id`

func scanBookingView(row interface{ Scan(dest ...any) error }) (BookingView, error) {
	var v BookingView
	err := row.Scan(
		&v.ID, &v.BuyerID, &v.ProviderID, &v.ProviderName,
		&v.Status, &v.PaymentStatus, &v.UsedCredit, &v.SessionAt,
		&v.JoinURL, &v.JoinExpiresAt, &v.CreatedAt,
	)
	return v, err
}

func (s *BookingReadStore) ViewByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	v, err := scanBookingView(s.db.QueryRow(ctx, bookingViewSQL+` WHERE b.id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to load booking view", err)
	}
	return &v, nil
}

func (s *BookingReadStore) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]BookingView, error) {
	rows, err := s.db.Query(ctx, bookingViewSQL+` WHERE b.buyer_id = $1 ORDER BY b.session_at DESC`, buyerID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	var views []BookingView
	for rows.Next() {
		v, err := scanBookingView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking view", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read booking views", err)
	}
	return views, nil
}

func reminderColumn(lead booking.ReminderLead) string {
	if lead == booking.ReminderLead5m {
		return "reminder_5m_sent"
	}
	return "reminder_1h_sent"
}

// DueReminders lists confirmed bookings whose session start falls inside
// the lead window and whose flag for that lead is still unset, joined with
// both participants' contact details.
func (s *BookingReadStore) DueReminders(ctx context.Context, lead booking.ReminderLead, from, to time.Time) ([]shared.ReminderTarget, error) {
	query := `
SELECT b.id, b.session_at, COALESCE(b.join_url, ''),
	bu.id, bu.email, bu.display_name,
	pu.id, pu.email, pu.display_name
FROM bookings b
JOIN users bu ON bu.id = b.buyer_id
JOIN providers p ON p.id = b.provider_id
JOIN users pu ON pu.id = p.user_id
WHERE b.status = 'confirmed'
  AND b.` + reminderColumn(lead) + ` = FALSE
  AND b.session_at >= $1 AND b.session_at <= $2
ORDER BY b.session_at`

	rows, err := s.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list due reminders", err)
	}
	defer rows.Close()

	var targets []shared.ReminderTarget
	for rows.Next() {
		var t shared.ReminderTarget
		err := rows.Scan(
			&t.BookingID, &t.SessionAt, &t.JoinURL,
			&t.Buyer.ID, &t.Buyer.Email, &t.Buyer.DisplayName,
			&t.Provider.ID, &t.Provider.Email, &t.Provider.DisplayName,
		)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reminder target", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reminder targets", err)
	}
	return targets, nil
}
