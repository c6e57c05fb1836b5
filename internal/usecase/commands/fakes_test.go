package commands_test

import (
	"context"
	"errors"
	"sort"
	"time"

	"settlement-core/internal/domain/booking"
	"settlement-core/internal/domain/credit"
	"settlement-core/internal/domain/ledger"
	"settlement-core/internal/gateway"
	"settlement-core/internal/infra"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

var errNoRows = errors.New("no rows in result set")

// fakeBookingRow mirrors the persisted shape of one booking.
type fakeBookingRow struct {
	ID                uuid.UUID
	BuyerID           uuid.UUID
	ProviderID        uuid.UUID
	Status            booking.Status
	PaymentStatus     booking.PaymentStatus
	UsedCredit        bool
	SessionAt         time.Time
	JoinURL           string
	JoinExpiresAt     time.Time
	CheckoutSessionID string
	Settlement        booking.Settlement
	Reminder1hSent    bool
	Reminder5mSent    bool
}

type fakeCreditRow struct {
	ID          uuid.UUID
	BuyerID     uuid.UUID
	ProviderID  uuid.UUID
	BundleSize  int32
	CreditsLeft int32
	PurchasedAt time.Time
}

type fakeNotification struct {
	UserID uuid.UUID
	Kind   string
	Title  string
	Body   string
}

type fakeJob struct {
	Kind    string
	Topic   string
	Payload []byte
}

type fakeBalance struct {
	Available int64
	OnHold    int64
}

// fakeUoW is an in-memory shared.UnitOfWork. Within runs the callback
// directly; these tests exercise use case logic, not transactionality.
type fakeUoW struct {
	bookings      map[uuid.UUID]*fakeBookingRow
	credits       []*fakeCreditRow
	entries       []ledger.Entry
	balances      map[uuid.UUID]*fakeBalance
	orders        map[uuid.UUID]*shared.OrderSnapshot
	providers     map[uuid.UUID]*shared.ProviderSnapshot
	disputes      map[uuid.UUID]*shared.DisputeSnapshot
	users         map[uuid.UUID]shared.UserContact
	processed     map[string]bool
	notifications []fakeNotification
	jobs          []fakeJob
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{
		bookings:  make(map[uuid.UUID]*fakeBookingRow),
		balances:  make(map[uuid.UUID]*fakeBalance),
		orders:    make(map[uuid.UUID]*shared.OrderSnapshot),
		providers: make(map[uuid.UUID]*shared.ProviderSnapshot),
		disputes:  make(map[uuid.UUID]*shared.DisputeSnapshot),
		users:     make(map[uuid.UUID]shared.UserContact),
		processed: make(map[string]bool),
	}
}

func (f *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, &fakeTx{state: f})
}

func (f *fakeUoW) Reads() shared.CommandReads {
	return &fakeReads{state: f}
}

func (f *fakeUoW) balance(sellerID uuid.UUID) *fakeBalance {
	b, ok := f.balances[sellerID]
	if !ok {
		b = &fakeBalance{}
		f.balances[sellerID] = b
	}
	return b
}

type fakeTx struct {
	state *fakeUoW
}

func (t *fakeTx) Bookings() shared.BookingRepository              { return &fakeBookingRepo{t.state} }
func (t *fakeTx) Credits() shared.CreditRepository                { return &fakeCreditRepo{t.state} }
func (t *fakeTx) Ledger() shared.LedgerRepository                 { return &fakeLedgerRepo{t.state} }
func (t *fakeTx) Orders() shared.OrderRepository                  { return &fakeOrderRepo{t.state} }
func (t *fakeTx) Providers() shared.ProviderRepository            { return &fakeProviderRepo{t.state} }
func (t *fakeTx) ProcessedEvents() shared.ProcessedEventRepository { return &fakeEventRepo{t.state} }
func (t *fakeTx) Disputes() shared.DisputeRepository              { return &fakeDisputeRepo{t.state} }
func (t *fakeTx) Notifications() shared.NotificationRepository    { return &fakeNotificationRepo{t.state} }
func (t *fakeTx) Outbox() shared.OutboxRepository                 { return &fakeOutboxRepo{t.state} }
func (t *fakeTx) Reads() shared.CommandReads                      { return &fakeReads{t.state} }

type fakeBookingRepo struct{ state *fakeUoW }

func (r *fakeBookingRepo) Create(_ context.Context, b *booking.Booking) error {
	row := &fakeBookingRow{
		ID:            b.ID(),
		BuyerID:       b.BuyerID(),
		ProviderID:    b.ProviderID(),
		Status:        b.Status(),
		PaymentStatus: b.PaymentStatus(),
		UsedCredit:    b.UsedCredit(),
		SessionAt:     b.SessionAt(),
		JoinURL:       b.JoinURL(),
	}
	if expiry := b.JoinExpiresAt(); expiry != nil {
		row.JoinExpiresAt = *expiry
	}
	r.state.bookings[b.ID()] = row
	return nil
}

func (r *fakeBookingRepo) SetCheckoutSession(_ context.Context, bookingID uuid.UUID, sessionID string) error {
	row, ok := r.state.bookings[bookingID]
	if !ok {
		return infra.WrapRepoErr("booking not found", errNoRows, infra.KindNotFound)
	}
	row.CheckoutSessionID = sessionID
	return nil
}

func (r *fakeBookingRepo) ConfirmIfPending(_ context.Context, bookingID uuid.UUID, joinURL string, joinExpiresAt time.Time, settlement booking.Settlement) (bool, error) {
	row, ok := r.state.bookings[bookingID]
	if !ok || row.Status != booking.StatusPending {
		return false, nil
	}
	row.Status = booking.StatusConfirmed
	row.PaymentStatus = booking.PaymentPaid
	row.JoinURL = joinURL
	row.JoinExpiresAt = joinExpiresAt
	row.Settlement = settlement
	return true, nil
}

func (r *fakeBookingRepo) MarkRefunded(_ context.Context, bookingID uuid.UUID) (bool, error) {
	row, ok := r.state.bookings[bookingID]
	if !ok || (row.Status != booking.StatusConfirmed && row.Status != booking.StatusCompleted) {
		return false, nil
	}
	row.Status = booking.StatusRefunded
	row.PaymentStatus = booking.PaymentRefunded
	return true, nil
}

func (r *fakeBookingRepo) MarkReminderSentIfUnset(_ context.Context, bookingID uuid.UUID, lead booking.ReminderLead) (bool, error) {
	row, ok := r.state.bookings[bookingID]
	if !ok || row.Status != booking.StatusConfirmed {
		return false, nil
	}
	if lead == booking.ReminderLead5m {
		if row.Reminder5mSent {
			return false, nil
		}
		row.Reminder5mSent = true
		return true, nil
	}
	if row.Reminder1hSent {
		return false, nil
	}
	row.Reminder1hSent = true
	return true, nil
}

type fakeCreditRepo struct{ state *fakeUoW }

func (r *fakeCreditRepo) ConsumeOldest(_ context.Context, buyerID, providerID uuid.UUID) (*shared.CreditConsumption, error) {
	var candidates []*fakeCreditRow
	for _, row := range r.state.credits {
		if row.BuyerID == buyerID && row.ProviderID == providerID && row.CreditsLeft > 0 {
			candidates = append(candidates, row)
		}
	}
	if len(candidates) == 0 {
		return nil, infra.WrapRepoErr("no credit available", errNoRows, infra.KindNotFound)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].PurchasedAt.Before(candidates[j].PurchasedAt)
	})
	oldest := candidates[0]
	oldest.CreditsLeft--
	return &shared.CreditConsumption{BundleID: oldest.ID, CreditsLeft: oldest.CreditsLeft}, nil
}

func (r *fakeCreditRepo) Insert(_ context.Context, b *credit.Bundle) error {
	r.state.credits = append(r.state.credits, &fakeCreditRow{
		ID:          b.ID(),
		BuyerID:     b.BuyerID(),
		ProviderID:  b.ProviderID(),
		BundleSize:  b.BundleSize(),
		CreditsLeft: b.CreditsLeft(),
		PurchasedAt: b.PurchasedAt(),
	})
	return nil
}

type fakeLedgerRepo struct{ state *fakeUoW }

func (r *fakeLedgerRepo) InsertEntries(_ context.Context, entries []ledger.Entry) error {
	r.state.entries = append(r.state.entries, entries...)
	return nil
}

func (r *fakeLedgerRepo) ApplyBalanceDelta(_ context.Context, sellerID uuid.UUID, availableDelta, onHoldDelta int64) error {
	b := r.state.balance(sellerID)
	b.Available += availableDelta
	b.OnHold += onHoldDelta
	return nil
}

type fakeOrderRepo struct{ state *fakeUoW }

func (r *fakeOrderRepo) MarkPaidIfPending(_ context.Context, orderID uuid.UUID, _ string) (bool, error) {
	order, ok := r.state.orders[orderID]
	if !ok || order.Status != "pending" {
		return false, nil
	}
	order.Status = "paid_pending_fulfillment"
	return true, nil
}

func (r *fakeOrderRepo) MarkRefunded(_ context.Context, orderID uuid.UUID) (bool, error) {
	order, ok := r.state.orders[orderID]
	if !ok || (order.Status != "paid_pending_fulfillment" && order.Status != "fulfilled") {
		return false, nil
	}
	order.Status = "refunded"
	return true, nil
}

type fakeProviderRepo struct{ state *fakeUoW }

func (r *fakeProviderRepo) UpsertPayoutStatus(_ context.Context, gatewayAccountID string, payoutEnabled, onboardingRequired bool) error {
	for _, p := range r.state.providers {
		if p.GatewayAccountID == gatewayAccountID {
			p.PayoutEnabled = payoutEnabled
			p.OnboardingRequired = onboardingRequired
		}
	}
	return nil
}

type fakeEventRepo struct{ state *fakeUoW }

func (r *fakeEventRepo) TryInsert(_ context.Context, eventID string) (bool, error) {
	if r.state.processed[eventID] {
		return false, nil
	}
	r.state.processed[eventID] = true
	return true, nil
}

type fakeDisputeRepo struct{ state *fakeUoW }

func (r *fakeDisputeRepo) ResolveIfOpen(_ context.Context, disputeID uuid.UUID, status, _ string) (bool, error) {
	d, ok := r.state.disputes[disputeID]
	if !ok || d.Status != "open" {
		return false, nil
	}
	d.Status = status
	return true, nil
}

type fakeNotificationRepo struct{ state *fakeUoW }

func (r *fakeNotificationRepo) Insert(_ context.Context, userID uuid.UUID, kind, title, body string) error {
	r.state.notifications = append(r.state.notifications, fakeNotification{UserID: userID, Kind: kind, Title: title, Body: body})
	return nil
}

type fakeOutboxRepo struct{ state *fakeUoW }

func (r *fakeOutboxRepo) CreateJob(_ context.Context, kind, topic string, payload []byte, _ time.Time) error {
	r.state.jobs = append(r.state.jobs, fakeJob{Kind: kind, Topic: topic, Payload: payload})
	return nil
}

type fakeReads struct{ state *fakeUoW }

func (r *fakeReads) BookingByID(_ context.Context, id uuid.UUID) (*shared.BookingSnapshot, error) {
	row, ok := r.state.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", errNoRows, infra.KindNotFound)
	}
	return &shared.BookingSnapshot{
		ID:                row.ID,
		BuyerID:           row.BuyerID,
		ProviderID:        row.ProviderID,
		Status:            row.Status,
		PaymentStatus:     row.PaymentStatus,
		UsedCredit:        row.UsedCredit,
		SessionAt:         row.SessionAt,
		CheckoutSessionID: row.CheckoutSessionID,
		NetCents:          row.Settlement.NetCents,
	}, nil
}

func (r *fakeReads) ProviderByID(_ context.Context, id uuid.UUID) (*shared.ProviderSnapshot, error) {
	p, ok := r.state.providers[id]
	if !ok {
		return nil, infra.WrapRepoErr("provider not found", errNoRows, infra.KindNotFound)
	}
	snap := *p
	return &snap, nil
}

func (r *fakeReads) OrderByID(_ context.Context, id uuid.UUID) (*shared.OrderSnapshot, error) {
	o, ok := r.state.orders[id]
	if !ok {
		return nil, infra.WrapRepoErr("order not found", errNoRows, infra.KindNotFound)
	}
	snap := *o
	return &snap, nil
}

func (r *fakeReads) DisputeByID(_ context.Context, id uuid.UUID) (*shared.DisputeSnapshot, error) {
	d, ok := r.state.disputes[id]
	if !ok {
		return nil, infra.WrapRepoErr("dispute not found", errNoRows, infra.KindNotFound)
	}
	snap := *d
	return &snap, nil
}

func (r *fakeReads) UserContactByID(_ context.Context, id uuid.UUID) (*shared.UserContact, error) {
	u, ok := r.state.users[id]
	if !ok {
		return nil, infra.WrapRepoErr("user not found", errNoRows, infra.KindNotFound)
	}
	return &u, nil
}

func (r *fakeReads) DueReminders(_ context.Context, lead booking.ReminderLead, from, to time.Time) ([]shared.ReminderTarget, error) {
	var targets []shared.ReminderTarget
	for _, row := range r.state.bookings {
		if row.Status != booking.StatusConfirmed {
			continue
		}
		if lead == booking.ReminderLead5m && row.Reminder5mSent {
			continue
		}
		if lead == booking.ReminderLead1h && row.Reminder1hSent {
			continue
		}
		if row.SessionAt.Before(from) || row.SessionAt.After(to) {
			continue
		}
		targets = append(targets, shared.ReminderTarget{
			BookingID: row.ID,
			SessionAt: row.SessionAt,
			JoinURL:   row.JoinURL,
			Buyer:     r.state.users[row.BuyerID],
			Provider:  r.state.users[row.ProviderID],
		})
	}
	return targets, nil
}

// fakeGateway scripts the payment provider.
type fakeGateway struct {
	createdSessions []gateway.CheckoutParams
	session         *gateway.CheckoutSession
	createErr       error
	charge          *gateway.Charge
	chargeErr       error
	signatureErr    error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, params gateway.CheckoutParams) (*gateway.CheckoutSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.createdSessions = append(g.createdSessions, params)
	if g.session != nil {
		return g.session, nil
	}
	return &gateway.CheckoutSession{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}, nil
}

func (g *fakeGateway) RetrieveCharge(_ context.Context, _ string) (*gateway.Charge, error) {
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return g.charge, nil
}

func (g *fakeGateway) VerifySignature(_ []byte, _ string) error {
	return g.signatureErr
}

// fakeMailer records outgoing mail.
type fakeMailer struct {
	sent    []string
	sendErr error
}

func (m *fakeMailer) Send(_ context.Context, toEmail, _ string, subject, _ string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, toEmail+": "+subject)
	return nil
}
