package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"settlement-core/internal/domain/booking"
	"settlement-core/internal/pkg/clock"
	"settlement-core/internal/pkg/errs"
	"settlement-core/internal/pkg/meeting"
	"settlement-core/internal/usecase/commands"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type BookingCommandsTestSuite struct {
	suite.Suite
	uow      *fakeUoW
	gw       *fakeGateway
	clock    *clock.MockClock
	commands commands.BookingCommands

	buyerID    uuid.UUID
	providerID uuid.UUID
	now        time.Time
}

func (s *BookingCommandsTestSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.uow = newFakeUoW()
	s.gw = &fakeGateway{}
	s.clock = clock.NewMockClock(s.now)
	s.commands = commands.NewBookingUseCase(s.uow, s.gw, s.clock, discardLogger())

	s.buyerID = uuid.New()
	s.providerID = uuid.New()
	s.uow.providers[s.providerID] = &shared.ProviderSnapshot{
		ID:                s.providerID,
		DisplayName:       "Ada",
		GatewayAccountID:  "acct_1",
		PayoutEnabled:     true,
		MeetingProvider:   meeting.ProviderBuiltin,
		SessionPriceCents: 5000,
	}
}

func TestBookingCommandsSuite(t *testing.T) {
	suite.Run(t, new(BookingCommandsTestSuite))
}

func (s *BookingCommandsTestSuite) input() commands.CreateBookingInput {
	return commands.CreateBookingInput{
		BuyerID:    s.buyerID,
		ProviderID: s.providerID,
		SessionAt:  s.now.Add(24 * time.Hour),
	}
}

func (s *BookingCommandsTestSuite) addCredits(creditsLeft int32, purchasedAt time.Time) uuid.UUID {
	id := uuid.New()
	s.uow.credits = append(s.uow.credits, &fakeCreditRow{
		ID:          id,
		BuyerID:     s.buyerID,
		ProviderID:  s.providerID,
		BundleSize:  10,
		CreditsLeft: creditsLeft,
		PurchasedAt: purchasedAt,
	})
	return id
}

func (s *BookingCommandsTestSuite) TestCreditPath() {
	s.addCredits(3, s.now.Add(-time.Hour))

	outcome, err := s.commands.CreateBooking(context.Background(), s.input())
	s.Require().NoError(err)

	s.True(outcome.UsedCredit)
	s.Equal(int32(2), outcome.CreditsLeft)
	s.Empty(outcome.CheckoutURL)

	row := s.uow.bookings[outcome.BookingID]
	s.Require().NotNil(row)
	s.Equal(booking.StatusConfirmed, row.Status)
	s.Equal(booking.PaymentPaid, row.PaymentStatus)
	s.True(row.UsedCredit)

	// Confirmed at creation still means the buyer gets a join link.
	s.Equal("https://meet.sessions.app/room/"+outcome.BookingID.String(), row.JoinURL)
	s.Equal(s.now.Add(booking.JoinWindow), row.JoinExpiresAt)

	s.Empty(s.gw.createdSessions, "credit path never touches the gateway")
}

func (s *BookingCommandsTestSuite) TestCreditPathConsumesOldestBundleFirst() {
	oldID := s.addCredits(1, s.now.Add(-48*time.Hour))
	s.addCredits(5, s.now.Add(-time.Hour))

	_, err := s.commands.CreateBooking(context.Background(), s.input())
	s.Require().NoError(err)

	for _, row := range s.uow.credits {
		if row.ID == oldID {
			s.Equal(int32(0), row.CreditsLeft)
		} else {
			s.Equal(int32(5), row.CreditsLeft)
		}
	}
}

func (s *BookingCommandsTestSuite) TestPaymentPath() {
	outcome, err := s.commands.CreateBooking(context.Background(), s.input())
	s.Require().NoError(err)

	s.False(outcome.UsedCredit)
	s.Equal("https://pay.example/cs_test_1", outcome.CheckoutURL)

	row := s.uow.bookings[outcome.BookingID]
	s.Require().NotNil(row)
	s.Equal(booking.StatusPending, row.Status)
	s.Equal(booking.PaymentPending, row.PaymentStatus)
	s.Equal("cs_test_1", row.CheckoutSessionID)

	s.Require().Len(s.gw.createdSessions, 1)
	params := s.gw.createdSessions[0]
	s.Equal(int64(5000), params.AmountCents)
	s.Equal(int64(750), params.ApplicationFeeCents)
	s.Equal("acct_1", params.DestinationAccountID)
	s.Equal("session_booking", params.Metadata["checkout_kind"])
	s.Equal(outcome.BookingID.String(), params.Metadata["booking_id"])
}

func (s *BookingCommandsTestSuite) TestExhaustedCreditsFallBackToPayment() {
	s.addCredits(0, s.now.Add(-time.Hour))

	outcome, err := s.commands.CreateBooking(context.Background(), s.input())
	s.Require().NoError(err)

	s.False(outcome.UsedCredit)
	s.NotEmpty(outcome.CheckoutURL)
}

func (s *BookingCommandsTestSuite) TestProviderNotPayoutReady() {
	s.uow.providers[s.providerID].PayoutEnabled = false

	_, err := s.commands.CreateBooking(context.Background(), s.input())
	s.Require().ErrorIs(err, commands.ErrProviderNotPayoutReady)

	s.Empty(s.uow.bookings, "no booking row may exist for an unfundable request")
	s.Empty(s.gw.createdSessions)
}

func (s *BookingCommandsTestSuite) TestCreditPathIgnoresPayoutReadiness() {
	// Credit-funded bookings involve no payout, so a provider mid-onboarding
	// can still be booked with prepaid credits.
	s.uow.providers[s.providerID].PayoutEnabled = false
	s.addCredits(1, s.now.Add(-time.Hour))

	outcome, err := s.commands.CreateBooking(context.Background(), s.input())
	s.Require().NoError(err)
	s.True(outcome.UsedCredit)
}

func (s *BookingCommandsTestSuite) TestProviderNotFound() {
	in := s.input()
	in.ProviderID = uuid.New()

	_, err := s.commands.CreateBooking(context.Background(), in)
	s.ErrorIs(err, commands.ErrProviderNotFound)
}

func (s *BookingCommandsTestSuite) TestSessionInPast() {
	in := s.input()
	in.SessionAt = s.now.Add(-time.Minute)

	_, err := s.commands.CreateBooking(context.Background(), in)
	s.ErrorIs(err, commands.ErrSessionInPast)
}

func (s *BookingCommandsTestSuite) TestSelfBooking() {
	s.uow.providers[s.buyerID] = &shared.ProviderSnapshot{
		ID:                s.buyerID,
		GatewayAccountID:  "acct_2",
		PayoutEnabled:     true,
		SessionPriceCents: 5000,
	}
	in := s.input()
	in.ProviderID = s.buyerID

	_, err := s.commands.CreateBooking(context.Background(), in)
	s.ErrorIs(err, commands.ErrSelfBooking)
}

func (s *BookingCommandsTestSuite) TestCheckoutFailureLeavesPendingBooking() {
	s.gw.createErr = assert.AnError
	// Session creation happens after the booking commit; the booking
	// stays pending and simply never confirms.
	s.gw.createdSessions = nil

	_, err := s.commands.CreateBooking(context.Background(), s.input())
	s.Require().Error(err)
	s.True(errs.Is(err, commands.ErrCheckoutFailed))

	s.Require().Len(s.uow.bookings, 1)
	for _, row := range s.uow.bookings {
		s.Equal(booking.StatusPending, row.Status)
		s.Empty(row.CheckoutSessionID)
	}
}

func TestCreditAndPaymentPathsAreExclusive(t *testing.T) {
	// A race loser whose credit vanished between check and decrement takes
	// the payment path rather than double-spending.
	uow := newFakeUoW()
	gw := &fakeGateway{}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	providerID := uuid.New()
	uow.providers[providerID] = &shared.ProviderSnapshot{
		ID:                providerID,
		GatewayAccountID:  "acct_1",
		PayoutEnabled:     true,
		SessionPriceCents: 5000,
	}
	buyerID := uuid.New()
	uow.credits = append(uow.credits, &fakeCreditRow{
		ID: uuid.New(), BuyerID: buyerID, ProviderID: providerID,
		BundleSize: 10, CreditsLeft: 1, PurchasedAt: now.Add(-time.Hour),
	})

	cmd := commands.NewBookingUseCase(uow, gw, clock.NewMockClock(now), discardLogger())
	in := commands.CreateBookingInput{BuyerID: buyerID, ProviderID: providerID, SessionAt: now.Add(time.Hour)}

	first, err := cmd.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	second, err := cmd.CreateBooking(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, first.UsedCredit)
	assert.False(t, second.UsedCredit)
	assert.NotEmpty(t, second.CheckoutURL)
	assert.Len(t, gw.createdSessions, 1)
}
