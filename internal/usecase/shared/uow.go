package shared

import (
	"context"
	"time"

	"settlement-core/internal/domain/booking"
	"settlement-core/internal/domain/credit"
	"settlement-core/internal/domain/ledger"
	"settlement-core/internal/pkg/meeting"

	"github.com/google/uuid"
)

// UnitOfWork owns transaction boundaries for the write side. Every
// booking/credit/ledger mutation runs inside Within so the invariants the
// settlement core promises hold atomically.
type UnitOfWork interface {
	// Within: full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads: command-side reads outside any transaction
	Reads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Credits() CreditRepository
	Ledger() LedgerRepository
	Orders() OrderRepository
	Providers() ProviderRepository
	ProcessedEvents() ProcessedEventRepository
	Disputes() DisputeRepository
	Notifications() NotificationRepository
	Outbox() OutboxRepository
	Reads() CommandReads
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	SetCheckoutSession(ctx context.Context, bookingID uuid.UUID, sessionID string) error
	// ConfirmIfPending applies the paid transition guarded on
	// status = pending; false means a retry arrived after confirmation.
	ConfirmIfPending(ctx context.Context, bookingID uuid.UUID, joinURL string, joinExpiresAt time.Time, settlement booking.Settlement) (bool, error)
	MarkRefunded(ctx context.Context, bookingID uuid.UUID) (bool, error)
	// MarkReminderSentIfUnset is the reminder commit point: the guarded
	// flag write makes overlapping sweeps send at most once.
	MarkReminderSentIfUnset(ctx context.Context, bookingID uuid.UUID, lead booking.ReminderLead) (bool, error)
}

// CreditConsumption reports one credit spent from a bundle.
type CreditConsumption struct {
	BundleID    uuid.UUID
	CreditsLeft int32
}

type CreditRepository interface {
	// ConsumeOldest atomically decrements the oldest non-exhausted bundle
	// for the pair (FIFO by purchase time). KindNotFound means no credit
	// is available, including a lost decrement race.
	ConsumeOldest(ctx context.Context, buyerID, providerID uuid.UUID) (*CreditConsumption, error)
	Insert(ctx context.Context, b *credit.Bundle) error
}

type LedgerRepository interface {
	InsertEntries(ctx context.Context, entries []ledger.Entry) error
	// ApplyBalanceDelta upserts the seller balance row. Only called in
	// the same transaction as the ledger entries that justify it.
	ApplyBalanceDelta(ctx context.Context, sellerID uuid.UUID, availableDelta, onHoldDelta int64) error
}

type OrderRepository interface {
	MarkPaidIfPending(ctx context.Context, orderID uuid.UUID, chargeRef string) (bool, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type ProviderRepository interface {
	UpsertPayoutStatus(ctx context.Context, gatewayAccountID string, payoutEnabled, onboardingRequired bool) error
}

type ProcessedEventRepository interface {
	// TryInsert records an external event id; false means the event was
	// already processed. This row is the idempotency gate for every
	// webhook branch.
	TryInsert(ctx context.Context, eventID string) (bool, error)
}

type DisputeRepository interface {
	// ResolveIfOpen transitions an open dispute; false when already resolved.
	ResolveIfOpen(ctx context.Context, disputeID uuid.UUID, status, note string) (bool, error)
}

type NotificationRepository interface {
	Insert(ctx context.Context, userID uuid.UUID, kind, title, body string) error
}

type OutboxRepository interface {
	// CreateJob enqueues a fire-and-forget side effect inside the
	// business transaction; a worker drains it independently.
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}

type CommandReads interface {
	BookingByID(ctx context.Context, id uuid.UUID) (*BookingSnapshot, error)
	ProviderByID(ctx context.Context, id uuid.UUID) (*ProviderSnapshot, error)
	OrderByID(ctx context.Context, id uuid.UUID) (*OrderSnapshot, error)
	DisputeByID(ctx context.Context, id uuid.UUID) (*DisputeSnapshot, error)
	UserContactByID(ctx context.Context, id uuid.UUID) (*UserContact, error)
	DueReminders(ctx context.Context, lead booking.ReminderLead, from, to time.Time) ([]ReminderTarget, error)
}

// Minimal snapshots for command read operations

type BookingSnapshot struct {
	ID                uuid.UUID
	BuyerID           uuid.UUID
	ProviderID        uuid.UUID
	Status            booking.Status
	PaymentStatus     booking.PaymentStatus
	UsedCredit        bool
	SessionAt         time.Time
	CheckoutSessionID string
	NetCents          int64
}

type ProviderSnapshot struct {
	ID                 uuid.UUID
	DisplayName        string
	GatewayAccountID   string
	PayoutEnabled      bool
	OnboardingRequired bool
	MeetingProvider    meeting.Provider
	MeetingBaseURL     string
	SessionPriceCents  int64
}

// PayoutReady reports whether the provider can receive a destination
// charge at all.
func (p *ProviderSnapshot) PayoutReady() bool {
	return p.PayoutEnabled && p.GatewayAccountID != ""
}

type OrderSnapshot struct {
	ID               uuid.UUID
	BuyerID          uuid.UUID
	SellerID         uuid.UUID
	Status           string
	SubtotalCents    int64
	PlatformFeeCents int64
	Digital          bool
}

type DisputeSnapshot struct {
	ID           uuid.UUID
	BookingID    *uuid.UUID
	OrderID      *uuid.UUID
	ClaimantID   uuid.UUID
	RespondentID uuid.UUID
	AmountCents  int64
	Status       string
}

type UserContact struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

type ReminderTarget struct {
	BookingID uuid.UUID
	SessionAt time.Time
	JoinURL   string
	Buyer     UserContact
	Provider  UserContact
}
