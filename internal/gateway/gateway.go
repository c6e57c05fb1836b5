// Package gateway adapts the hosted payment session provider. It creates
// checkout sessions with a destination-charge fee split, retrieves
// realized charges, and verifies webhook signatures. The provider is
// spoken to over plain HTTPS; no SDK.
package gateway

import (
	"context"

	"settlement-core/internal/pkg/errs"
)

var (
	// ErrNoPayoutAccount means the provider has no connected payout
	// destination; nothing may be charged or persisted in that state.
	ErrNoPayoutAccount = errs.New("no connected payout account")
	// ErrInvalidSignature rejects a webhook payload outright.
	ErrInvalidSignature = errs.New("invalid webhook signature")
	// ErrGateway marks provider-side failures; callers treat them as
	// retryable because every webhook branch is idempotent.
	ErrGateway = errs.New("payment gateway error")
)

// CheckoutParams describes one hosted session. Metadata is carried
// verbatim by the gateway and returned on the completion webhook.
type CheckoutParams struct {
	AmountCents          int64
	Description          string
	DestinationAccountID string
	ApplicationFeeCents  int64
	Metadata             map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Charge is the realized charge for a completed session. Amounts here are
// authoritative; they may differ from what the session requested.
type Charge struct {
	ID                  string
	PaymentIntentID     string
	TransferID          string
	AmountCents         int64
	ApplicationFeeCents int64
}

func (c Charge) NetCents() int64 {
	return c.AmountCents - c.ApplicationFeeCents
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	RetrieveCharge(ctx context.Context, paymentIntentID string) (*Charge, error)
	VerifySignature(payload []byte, signatureHeader string) error
}
