package api

import (
	"io"
	"log/slog"
	"net/http"

	"settlement-core/internal/gateway"
	"settlement-core/internal/pkg/errs"
	"settlement-core/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "Stripe-Signature"

// maxWebhookBody caps payload reads; real events are a few KB.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhookCommands commands.WebhookCommands
	logger          *slog.Logger
}

func NewWebhookHandler(webhookCommands commands.WebhookCommands, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookCommands: webhookCommands,
		logger:          logger,
	}
}

// @Summary Payment webhook
// @Description Receive payment gateway events. A non-2xx response makes the gateway redeliver.
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unreadable payload",
		})
		return
	}

	err = h.webhookCommands.HandleGatewayEvent(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	if err != nil {
		switch {
		case errs.Is(err, gateway.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid signature",
			})
		case errs.Is(err, commands.ErrBadWebhookPayload):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Malformed payload",
			})
		default:
			// 5xx asks the gateway to redeliver; every branch is
			// idempotent so a retry is always safe.
			h.logger.Error("webhook processing failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Processing failed",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
