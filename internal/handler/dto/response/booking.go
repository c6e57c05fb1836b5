package response

import (
	"time"

	"settlement-core/internal/usecase/commands"
	"settlement-core/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID            uuid.UUID  `json:"id"`
	BuyerID       uuid.UUID  `json:"buyerId"`
	ProviderID    uuid.UUID  `json:"providerId"`
	ProviderName  string     `json:"providerName"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"paymentStatus"`
	UsedCredit    bool       `json:"usedCredit"`
	SessionAt     time.Time  `json:"sessionAt"`
	JoinURL       string     `json:"joinUrl,omitempty"`
	JoinExpiresAt *time.Time `json:"joinExpiresAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func FromBookingView(v *queries.BookingView) *BookingResponse {
	return &BookingResponse{
		ID:            v.ID,
		BuyerID:       v.BuyerID,
		ProviderID:    v.ProviderID,
		ProviderName:  v.ProviderName,
		Status:        v.Status,
		PaymentStatus: v.PaymentStatus,
		UsedCredit:    v.UsedCredit,
		SessionAt:     v.SessionAt,
		JoinURL:       v.JoinURL,
		JoinExpiresAt: v.JoinExpiresAt,
		CreatedAt:     v.CreatedAt,
	}
}

// CreateBookingResponse distinguishes the two funding paths: a credit
// booking is final immediately, a payment booking hands back a checkout
// URL.
type CreateBookingResponse struct {
	BookingID   uuid.UUID `json:"bookingId"`
	UsedCredit  bool      `json:"usedCredit"`
	CreditsLeft int32     `json:"creditsLeft"`
	CheckoutURL string    `json:"checkoutUrl,omitempty"`
}

func FromBookingOutcome(outcome *commands.BookingOutcome) *CreateBookingResponse {
	return &CreateBookingResponse{
		BookingID:   outcome.BookingID,
		UsedCredit:  outcome.UsedCredit,
		CreditsLeft: outcome.CreditsLeft,
		CheckoutURL: outcome.CheckoutURL,
	}
}
