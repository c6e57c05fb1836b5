//go:build unit

package api_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"settlement-core/internal/gateway"
	"settlement-core/internal/handler/api"
	"settlement-core/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type stubWebhookCommands struct {
	err        error
	gotPayload []byte
	gotSig     string
}

func (s *stubWebhookCommands) HandleGatewayEvent(_ context.Context, payload []byte, signatureHeader string) error {
	s.gotPayload = payload
	s.gotSig = signatureHeader
	return s.err
}

type WebhookHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	commands *stubWebhookCommands
}

func (s *WebhookHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.commands = &stubWebhookCommands{}
	handler := api.NewWebhookHandler(s.commands, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router.POST("/webhooks/payment", handler.HandlePaymentEvent)
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

func (s *WebhookHandlerTestSuite) TestHandlePaymentEvent() {
	payload := map[string]any{"id": "evt_1", "type": "checkout.session.completed"}

	s.Run("success: returns 200 and forwards payload and signature", func() {
		s.commands.err = nil
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment",
			strings.NewReader(`{"id":"evt_1","type":"checkout.session.completed"}`))
		req.Header.Set("Stripe-Signature", "t=123,v1=abc")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"received": true}`, rec.Body.String())
		s.Contains(string(s.commands.gotPayload), "evt_1")
		s.Equal("t=123,v1=abc", s.commands.gotSig)
	})

	s.Run("error: 400 Bad Request on invalid signature", func() {
		s.commands.err = gateway.ErrInvalidSignature
		rec := performRequest(s.T(), s.router, http.MethodPost, "/webhooks/payment", payload, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 400 Bad Request on malformed payload", func() {
		s.commands.err = commands.ErrBadWebhookPayload
		rec := performRequest(s.T(), s.router, http.MethodPost, "/webhooks/payment", payload, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 500 asks the gateway to redeliver on processing failure", func() {
		s.commands.err = commands.ErrWebhookProcessing
		rec := performRequest(s.T(), s.router, http.MethodPost, "/webhooks/payment", payload, "")
		s.Equal(http.StatusInternalServerError, rec.Code)
	})
}
