package request

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ProviderID uuid.UUID `json:"provider_id" binding:"required"`
	SessionAt  time.Time `json:"session_at" binding:"required"`
	Notes      *string   `json:"notes,omitempty"`
}

func (r CreateBookingRequest) GetNotes() string {
	if r.Notes == nil {
		return ""
	}
	return strings.TrimSpace(*r.Notes)
}
