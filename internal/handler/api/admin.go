package api

import (
	"net/http"

	reqdto "settlement-core/internal/handler/dto/request"
	"settlement-core/internal/pkg/errs"
	"settlement-core/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	reminderCommands commands.ReminderCommands
	disputeCommands  commands.DisputeCommands
}

func NewAdminHandler(reminderCommands commands.ReminderCommands, disputeCommands commands.DisputeCommands) *AdminHandler {
	return &AdminHandler{
		reminderCommands: reminderCommands,
		disputeCommands:  disputeCommands,
	}
}

// @Summary Sweep reminders
// @Description Run one reminder sweep immediately. Idempotent; the background worker runs the same sweep.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /admin/reminders/sweep [post]
func (h *AdminHandler) SweepReminders(c *gin.Context) {
	result, err := h.reminderCommands.SweepReminders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	byLead := make(map[string]gin.H, len(result.ByLead))
	for lead, counts := range result.ByLead {
		byLead[string(lead)] = gin.H{"sent": counts.Sent, "skipped": counts.Skipped}
	}
	c.JSON(http.StatusOK, gin.H{
		"sent":    result.TotalSent(),
		"skipped": result.TotalSkipped(),
		"by_lead": byLead,
	})
}

// @Summary Resolve dispute
// @Description Resolve an open dispute with a refund or a rejection
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Dispute ID"
// @Param request body reqdto.ResolveDisputeRequest true "Resolution"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/disputes/{id}/resolve [post]
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid dispute ID format",
		})
		return
	}

	var req reqdto.ResolveDisputeRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	err = h.disputeCommands.ResolveDispute(c.Request.Context(), commands.ResolveDisputeInput{
		DisputeID: id,
		Refund:    req.IsRefund(),
		Note:      req.GetNote(),
	})
	if err != nil {
		switch {
		case errs.Is(err, commands.ErrDisputeNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Dispute not found",
			})
		case errs.Is(err, commands.ErrDisputeAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Dispute already resolved",
			})
		case errs.Is(err, commands.ErrNothingToRefund):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Disputed item is not refundable",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}
