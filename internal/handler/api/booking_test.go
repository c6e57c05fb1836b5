//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"settlement-core/internal/domain/user"
	"settlement-core/internal/handler/api"
	resdto "settlement-core/internal/handler/dto/response"
	"settlement-core/internal/usecase/commands"
	"settlement-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type stubBookingCommands struct {
	outcome  *commands.BookingOutcome
	err      error
	gotInput commands.CreateBookingInput
	calls    int
}

func (s *stubBookingCommands) CreateBooking(_ context.Context, in commands.CreateBookingInput) (*commands.BookingOutcome, error) {
	s.calls++
	s.gotInput = in
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

type stubBookingQueries struct {
	view       *queries.BookingView
	views      []queries.BookingView
	err        error
	gotActorID uuid.UUID
	gotIsAdmin bool
}

func (s *stubBookingQueries) GetByID(_ context.Context, actorID uuid.UUID, isAdmin bool, _ uuid.UUID) (*queries.BookingView, error) {
	s.gotActorID = actorID
	s.gotIsAdmin = isAdmin
	if s.err != nil {
		return nil, s.err
	}
	return s.view, nil
}

func (s *stubBookingQueries) ListByBuyer(_ context.Context, _ uuid.UUID) ([]queries.BookingView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.views, nil
}

func performRequest(t *testing.T, router *gin.Engine, method, url string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type BookingHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	commands *stubBookingCommands
	queries  *stubBookingQueries
	userID   uuid.UUID
	role     user.Role
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.commands = &stubBookingCommands{}
	s.queries = &stubBookingQueries{}
	s.userID = uuid.New()
	s.role = user.RoleMember
	handler := api.NewBookingHandler(s.commands, s.queries)

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", s.userID)
		c.Set("user_role", s.role)
		c.Next()
	}

	s.router.POST("/bookings", authMiddleware, handler.CreateBooking)
	s.router.GET("/bookings", authMiddleware, handler.GetMyBookings)
	s.router.GET("/bookings/:id", authMiddleware, handler.GetBooking)
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func (s *BookingHandlerTestSuite) validRequest() map[string]any {
	return map[string]any{
		"provider_id": uuid.New().String(),
		"session_at":  time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	}
}

func (s *BookingHandlerTestSuite) TestCreateBooking() {
	url := "/bookings"

	s.Run("success: credit-funded booking returns 201 without checkout URL", func() {
		bookingID := uuid.New()
		s.commands.err = nil
		s.commands.outcome = &commands.BookingOutcome{
			BookingID:   bookingID,
			UsedCredit:  true,
			CreditsLeft: 4,
		}

		rec := performRequest(s.T(), s.router, http.MethodPost, url, s.validRequest(), "token")
		s.Equal(http.StatusCreated, rec.Code)

		var body resdto.CreateBookingResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(bookingID, body.BookingID)
		s.True(body.UsedCredit)
		s.Equal(int32(4), body.CreditsLeft)
		s.Empty(body.CheckoutURL)

		s.Equal(s.userID, s.commands.gotInput.BuyerID, "buyer comes from the session, not the payload")
	})

	s.Run("success: payment-funded booking carries the checkout URL", func() {
		s.commands.err = nil
		s.commands.outcome = &commands.BookingOutcome{
			BookingID:   uuid.New(),
			CheckoutURL: "https://pay.example/cs_1",
		}

		rec := performRequest(s.T(), s.router, http.MethodPost, url, s.validRequest(), "token")
		s.Equal(http.StatusCreated, rec.Code)

		var body resdto.CreateBookingResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("https://pay.example/cs_1", body.CheckoutURL)
	})

	s.Run("error: 400 Bad Request on missing fields", func() {
		for _, payload := range []map[string]any{
			{},
			{"provider_id": uuid.New().String()},
			{"session_at": time.Now().Format(time.RFC3339)},
			{"provider_id": "not-a-uuid", "session_at": time.Now().Format(time.RFC3339)},
		} {
			before := s.commands.calls
			rec := performRequest(s.T(), s.router, http.MethodPost, url, payload, "token")
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal(before, s.commands.calls, "invalid payloads never reach the use case")
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := performRequest(s.T(), s.router, http.MethodPost, url, s.validRequest(), "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name         string
			commandsErr  error
			expectedCode int
		}{
			{"provider not found", commands.ErrProviderNotFound, http.StatusNotFound},
			{"session in past", commands.ErrSessionInPast, http.StatusBadRequest},
			{"self booking", commands.ErrSelfBooking, http.StatusBadRequest},
			{"provider not payout ready", commands.ErrProviderNotPayoutReady, http.StatusUnprocessableEntity},
			{"checkout failed", commands.ErrCheckoutFailed, http.StatusBadGateway},
			{"database failure", commands.ErrDatabaseOperation, http.StatusInternalServerError},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.commands.err = tc.commandsErr
				rec := performRequest(s.T(), s.router, http.MethodPost, url, s.validRequest(), "token")
				s.Equal(tc.expectedCode, rec.Code)
			})
		}
	})
}

func (s *BookingHandlerTestSuite) bookingView(buyerID uuid.UUID) *queries.BookingView {
	return &queries.BookingView{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		ProviderID:    uuid.New(),
		ProviderName:  "Ada",
		Status:        "confirmed",
		PaymentStatus: "paid",
		SessionAt:     time.Now().Add(24 * time.Hour).UTC(),
		CreatedAt:     time.Now().UTC(),
	}
}

func (s *BookingHandlerTestSuite) TestGetBooking() {
	bookingID := uuid.New()
	url := "/bookings/" + bookingID.String()

	s.Run("success: returns 200 OK with BookingResponse", func() {
		s.queries.err = nil
		s.queries.view = s.bookingView(s.userID)

		rec := performRequest(s.T(), s.router, http.MethodGet, url, nil, "token")
		s.Equal(http.StatusOK, rec.Code)

		var body resdto.BookingResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(s.queries.view.ID, body.ID)
		s.Equal("Ada", body.ProviderName)

		s.Equal(s.userID, s.queries.gotActorID)
		s.False(s.queries.gotIsAdmin)
	})

	s.Run("success: admin role is passed through", func() {
		s.role = user.RoleAdmin
		s.queries.err = nil
		s.queries.view = s.bookingView(uuid.New())

		rec := performRequest(s.T(), s.router, http.MethodGet, url, nil, "token")
		s.Equal(http.StatusOK, rec.Code)
		s.True(s.queries.gotIsAdmin)
		s.role = user.RoleMember
	})

	s.Run("error: 400 Bad Request for invalid UUID", func() {
		rec := performRequest(s.T(), s.router, http.MethodGet, "/bookings/not-a-uuid", nil, "token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 404 Not Found for missing booking", func() {
		s.queries.err = queries.ErrBookingNotFound
		rec := performRequest(s.T(), s.router, http.MethodGet, url, nil, "token")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("error: 403 Forbidden for someone else's booking", func() {
		s.queries.err = queries.ErrForbidden
		rec := performRequest(s.T(), s.router, http.MethodGet, url, nil, "token")
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *BookingHandlerTestSuite) TestGetMyBookings() {
	s.Run("success: returns the caller's bookings", func() {
		s.queries.err = nil
		s.queries.views = []queries.BookingView{
			*s.bookingView(s.userID),
			*s.bookingView(s.userID),
		}

		rec := performRequest(s.T(), s.router, http.MethodGet, "/bookings", nil, "token")
		s.Equal(http.StatusOK, rec.Code)

		var body []resdto.BookingResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Len(body, 2)
	})

	s.Run("success: empty list for a new user", func() {
		s.queries.err = nil
		s.queries.views = nil

		rec := performRequest(s.T(), s.router, http.MethodGet, "/bookings", nil, "token")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := performRequest(s.T(), s.router, http.MethodGet, "/bookings", nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}
