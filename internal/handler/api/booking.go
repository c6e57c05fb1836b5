package api

import (
	"net/http"

	reqdto "settlement-core/internal/handler/dto/request"
	resdto "settlement-core/internal/handler/dto/response"
	"settlement-core/internal/handler/middleware"
	"settlement-core/internal/pkg/errs"
	"settlement-core/internal/usecase/commands"
	"settlement-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	bookingCommands commands.BookingCommands
	bookingQueries  queries.BookingQueries
}

func NewBookingHandler(bookingCommands commands.BookingCommands, bookingQueries queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		bookingCommands: bookingCommands,
		bookingQueries:  bookingQueries,
	}
}

// @Summary Create booking
// @Description Book a session, funded by a prepaid credit when one exists, otherwise via hosted checkout
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	outcome, err := h.bookingCommands.CreateBooking(c.Request.Context(), commands.CreateBookingInput{
		BuyerID:    userID,
		ProviderID: req.ProviderID,
		SessionAt:  req.SessionAt,
		Notes:      req.GetNotes(),
	})
	if err != nil {
		switch {
		case errs.Is(err, commands.ErrProviderNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Provider not found",
			})
		case errs.Is(err, commands.ErrSessionInPast):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Session time must be in the future",
			})
		case errs.Is(err, commands.ErrSelfBooking):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Cannot book a session with yourself",
			})
		case errs.Is(err, commands.ErrProviderNotPayoutReady):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Provider cannot accept payments yet",
			})
		case errs.Is(err, commands.ErrCheckoutFailed):
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Payment provider is unavailable",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromBookingOutcome(outcome))
}

// @Summary Get booking
// @Description Get booking by ID
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	role, _ := middleware.GetUserRole(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid booking ID format",
		})
		return
	}

	view, err := h.bookingQueries.GetByID(c.Request.Context(), userID, role.IsAdmin(), id)
	if err != nil {
		switch {
		case errs.Is(err, queries.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		case errs.Is(err, queries.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Not allowed to view this booking",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary Get my bookings
// @Description List the current user's bookings, newest session first
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.BookingResponse
// @Failure 401 {object} map[string]string
// @Router /bookings [get]
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	views, err := h.bookingQueries.ListByBuyer(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.BookingResponse, len(views))
	for i := range views {
		response[i] = resdto.FromBookingView(&views[i])
	}

	c.JSON(http.StatusOK, response)
}
