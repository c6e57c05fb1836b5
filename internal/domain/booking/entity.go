package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotPending      = errors.New("booking is not pending")
	ErrNotConfirmed    = errors.New("booking is not confirmed")
	ErrNotRefundable   = errors.New("booking cannot be refunded")
	ErrMissingSession  = errors.New("session time is required")
	ErrSameParticipant = errors.New("buyer and provider must differ")
	ErrJoinLinkIssued  = errors.New("join link already issued")
)

// JoinWindow is how long the meeting link stays valid after confirmation.
const JoinWindow = 48 * time.Hour

// Settlement carries the realized charge written on confirmation. Amounts
// come from the retrieved charge, never from the original session request.
type Settlement struct {
	ChargeID   string
	TransferID string
	FeeCents   int64
	NetCents   int64
}

type Booking struct {
	id            uuid.UUID
	buyerID       uuid.UUID
	providerID    uuid.UUID
	status        Status
	paymentStatus PaymentStatus
	usedCredit    bool
	notes         string
	sessionAt     time.Time

	joinURL       string
	joinExpiresAt *time.Time

	checkoutSessionID string
	settlement        *Settlement

	reminder1hSent bool
	reminder5mSent bool

	createdAt time.Time
	updatedAt time.Time
}

// NewPending creates an unpaid booking that waits for the hosted checkout
// to complete.
func NewPending(buyerID, providerID uuid.UUID, sessionAt time.Time, notes string) (*Booking, error) {
	if err := validateParticipants(buyerID, providerID, sessionAt); err != nil {
		return nil, err
	}
	return &Booking{
		id:            uuid.New(),
		buyerID:       buyerID,
		providerID:    providerID,
		status:        StatusPending,
		paymentStatus: PaymentPending,
		sessionAt:     sessionAt,
		notes:         notes,
	}, nil
}

// NewCreditFunded creates a booking already confirmed and paid out of a
// prepaid credit bundle. Exactly one funding path applies per booking, so
// a credit-funded booking never gets a checkout session.
func NewCreditFunded(buyerID, providerID uuid.UUID, sessionAt time.Time, notes string) (*Booking, error) {
	if err := validateParticipants(buyerID, providerID, sessionAt); err != nil {
		return nil, err
	}
	return &Booking{
		id:            uuid.New(),
		buyerID:       buyerID,
		providerID:    providerID,
		status:        StatusConfirmed,
		paymentStatus: PaymentPaid,
		usedCredit:    true,
		sessionAt:     sessionAt,
		notes:         notes,
	}, nil
}

func validateParticipants(buyerID, providerID uuid.UUID, sessionAt time.Time) error {
	if buyerID == providerID {
		return ErrSameParticipant
	}
	if sessionAt.IsZero() {
		return ErrMissingSession
	}
	return nil
}

func Reconstruct(
	id, buyerID, providerID uuid.UUID,
	status Status,
	paymentStatus PaymentStatus,
	usedCredit bool,
	notes string,
	sessionAt time.Time,
	joinURL string,
	joinExpiresAt *time.Time,
	checkoutSessionID string,
	settlement *Settlement,
	reminder1hSent, reminder5mSent bool,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                id,
		buyerID:           buyerID,
		providerID:        providerID,
		status:            status,
		paymentStatus:     paymentStatus,
		usedCredit:        usedCredit,
		notes:             notes,
		sessionAt:         sessionAt,
		joinURL:           joinURL,
		joinExpiresAt:     joinExpiresAt,
		checkoutSessionID: checkoutSessionID,
		settlement:        settlement,
		reminder1hSent:    reminder1hSent,
		reminder5mSent:    reminder5mSent,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Confirm applies a completed payment. Only a pending booking can be
// confirmed; the join URL is set here and never rewritten afterwards.
func (b *Booking) Confirm(joinURL string, settlement Settlement, now time.Time) error {
	if b.status != StatusPending {
		return ErrNotPending
	}
	expiry := now.Add(JoinWindow)
	b.status = StatusConfirmed
	b.paymentStatus = PaymentPaid
	b.joinURL = joinURL
	b.joinExpiresAt = &expiry
	b.settlement = &settlement
	return nil
}

// IssueJoinLink attaches the meeting link to a confirmed booking that has
// none yet. Credit-funded bookings need this: they are confirmed at
// creation, before the id existed to derive a room URL from. Like
// Confirm, the link is write-once.
func (b *Booking) IssueJoinLink(joinURL string, now time.Time) error {
	if b.status != StatusConfirmed {
		return ErrNotConfirmed
	}
	if b.joinURL != "" {
		return ErrJoinLinkIssued
	}
	expiry := now.Add(JoinWindow)
	b.joinURL = joinURL
	b.joinExpiresAt = &expiry
	return nil
}

// Refund is the dispute-resolution transition.
func (b *Booking) Refund() error {
	if b.status != StatusConfirmed && b.status != StatusCompleted {
		return ErrNotRefundable
	}
	b.status = StatusRefunded
	b.paymentStatus = PaymentRefunded
	return nil
}

// MarkReminderSent flips a sent flag. Flags are monotonic: the first call
// per lead returns true, every later call false.
func (b *Booking) MarkReminderSent(lead ReminderLead) bool {
	switch lead {
	case ReminderLead1h:
		if b.reminder1hSent {
			return false
		}
		b.reminder1hSent = true
		return true
	case ReminderLead5m:
		if b.reminder5mSent {
			return false
		}
		b.reminder5mSent = true
		return true
	default:
		return false
	}
}

func (b *Booking) ReminderSent(lead ReminderLead) bool {
	switch lead {
	case ReminderLead1h:
		return b.reminder1hSent
	case ReminderLead5m:
		return b.reminder5mSent
	default:
		return false
	}
}

func (b *Booking) SetCheckoutSession(sessionID string) {
	b.checkoutSessionID = sessionID
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) BuyerID() uuid.UUID           { return b.buyerID }
func (b *Booking) ProviderID() uuid.UUID        { return b.providerID }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) UsedCredit() bool             { return b.usedCredit }
func (b *Booking) Notes() string                { return b.notes }
func (b *Booking) SessionAt() time.Time         { return b.sessionAt }
func (b *Booking) JoinURL() string              { return b.joinURL }
func (b *Booking) JoinExpiresAt() *time.Time    { return b.joinExpiresAt }
func (b *Booking) CheckoutSessionID() string    { return b.checkoutSessionID }
func (b *Booking) Settlement() *Settlement      { return b.settlement }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
