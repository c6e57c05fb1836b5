package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"settlement-core/internal/pkg/config"
	"settlement-core/internal/pkg/errs"
)

const apiVersion = "2024-12-18.acacia"

// Client talks to the payment provider's REST API with form-encoded
// requests, the way the provider's own examples do.
type Client struct {
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewClient(cfg config.GatewayConfig, logger *slog.Logger) *Client {
	return &Client{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		logger:        logger,
	}
}

// WithBaseURL overrides the API base URL (for tests).
func (c *Client) WithBaseURL(baseURL string) *Client {
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if params.DestinationAccountID == "" {
		return nil, ErrNoPayoutAccount
	}

	description := strings.TrimSpace(params.Description)
	if description == "" {
		description = "Session"
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", params.AmountCents))
	form.Set("line_items[0][price_data][product_data][name]", description)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)

	// Correlation metadata rides on both the session and the payment
	// intent so the webhook and later charge lookups can see it.
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
		form.Set(fmt.Sprintf("payment_intent_data[metadata][%s]", key), value)
	}

	// Destination charge: the fee stays on the platform, the remainder
	// transfers to the provider's connected account.
	form.Set("payment_intent_data[application_fee_amount]", fmt.Sprintf("%d", params.ApplicationFeeCents))
	form.Set("payment_intent_data[transfer_data][destination]", params.DestinationAccountID)

	var parsed checkoutSessionResponse
	if err := c.postForm(ctx, "/v1/checkout/sessions", form, &parsed); err != nil {
		return nil, err
	}
	if parsed.URL == "" {
		return nil, errs.Mark(errs.New("checkout session response missing url"), ErrGateway)
	}

	return &CheckoutSession{ID: parsed.ID, URL: parsed.URL}, nil
}

// RetrieveCharge fetches the realized charge behind a payment intent.
// Fees on the charge are authoritative and may differ from the request.
func (c *Client) RetrieveCharge(ctx context.Context, paymentIntentID string) (*Charge, error) {
	endpoint := "/v1/charges?limit=1&payment_intent=" + url.QueryEscape(paymentIntentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "build charge request"), ErrGateway)
	}
	c.setHeaders(req)

	var parsed chargeListResponse
	if err := c.do(req, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, errs.Mark(errs.New("no charge for payment intent "+paymentIntentID), ErrGateway)
	}

	raw := parsed.Data[0]
	return &Charge{
		ID:                  raw.ID,
		PaymentIntentID:     raw.PaymentIntent,
		TransferID:          raw.Transfer,
		AmountCents:         raw.Amount,
		ApplicationFeeCents: raw.ApplicationFeeAmount,
	}, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errs.Mark(errs.Wrap(err, "build gateway request"), ErrGateway)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Stripe-Version", apiVersion)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "gateway http"), ErrGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("gateway api error",
			"status", resp.StatusCode,
			"path", req.URL.Path,
			"body", string(body))
		return errs.Mark(errs.New(fmt.Sprintf("gateway status %d", resp.StatusCode)), ErrGateway)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Mark(errs.Wrap(err, "decode gateway response"), ErrGateway)
	}
	return nil
}

type checkoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type chargeListResponse struct {
	Data []struct {
		ID                   string `json:"id"`
		PaymentIntent        string `json:"payment_intent"`
		Transfer             string `json:"transfer"`
		Amount               int64  `json:"amount"`
		ApplicationFeeAmount int64  `json:"application_fee_amount"`
	} `json:"data"`
}
