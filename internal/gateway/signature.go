package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Replays older than this are rejected even with a valid signature.
const signatureTolerance = 5 * time.Minute

// VerifySignature checks the gateway's HMAC-SHA256 webhook signature.
// Header format: t=<unix>,v1=<hex>[,v1=<hex>...]; the signed payload is
// "<timestamp>.<body>". An unverified payload is never processed.
func (c *Client) VerifySignature(payload []byte, signatureHeader string) error {
	return verifySignature(c.webhookSecret, payload, signatureHeader, time.Now())
}

func verifySignature(secret string, payload []byte, header string, now time.Time) error {
	if secret == "" || header == "" {
		return ErrInvalidSignature
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if diff := now.Unix() - ts; diff > int64(signatureTolerance.Seconds()) || diff < -int64(signatureTolerance.Seconds()) {
		return ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// SignPayload produces a valid signature header for a payload. Used by
// tests and local tooling to fabricate webhook deliveries.
func SignPayload(secret string, payload []byte, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, payload)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}
