package gateway

import (
	"encoding/json"

	"settlement-core/internal/pkg/errs"
)

// Webhook event types this platform consumes.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventAccountUpdated    = "account.updated"
)

// Event is the webhook envelope. Data.Object is decoded lazily because
// its shape depends on the event type.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// SessionObject is the completed checkout session carried by
// checkout.session.completed.
type SessionObject struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
	Status        string            `json:"status"`
}

// AccountObject is the connected account carried by account.updated.
type AccountObject struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
	Requirements   struct {
		CurrentlyDue []string `json:"currently_due"`
	} `json:"requirements"`
}

func ParseEvent(payload []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, errs.Wrap(err, "decode webhook event")
	}
	if evt.ID == "" {
		return nil, errs.New("webhook event missing id")
	}
	return &evt, nil
}

func (e *Event) Session() (*SessionObject, error) {
	var session SessionObject
	if err := json.Unmarshal(e.Data.Object, &session); err != nil {
		return nil, errs.Wrap(err, "decode session object")
	}
	return &session, nil
}

func (e *Event) Account() (*AccountObject, error) {
	var account AccountObject
	if err := json.Unmarshal(e.Data.Object, &account); err != nil {
		return nil, errs.Wrap(err, "decode account object")
	}
	return &account, nil
}
