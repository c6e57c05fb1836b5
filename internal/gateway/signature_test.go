package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("accepts a freshly signed payload", func(t *testing.T) {
		header := SignPayload(secret, payload, now)
		assert.NoError(t, verifySignature(secret, payload, header, now))
	})

	t.Run("accepts within tolerance", func(t *testing.T) {
		header := SignPayload(secret, payload, now)
		assert.NoError(t, verifySignature(secret, payload, header, now.Add(4*time.Minute)))
	})

	t.Run("rejects a stale timestamp", func(t *testing.T) {
		header := SignPayload(secret, payload, now)
		err := verifySignature(secret, payload, header, now.Add(6*time.Minute))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("rejects a tampered payload", func(t *testing.T) {
		header := SignPayload(secret, payload, now)
		err := verifySignature(secret, []byte(`{"id":"evt_2"}`), header, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("rejects the wrong secret", func(t *testing.T) {
		header := SignPayload("whsec_other", payload, now)
		err := verifySignature(secret, payload, header, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("rejects malformed headers", func(t *testing.T) {
		for _, header := range []string{"", "v1=abc", "t=123", "t=abc,v1=def", "garbage"} {
			err := verifySignature(secret, payload, header, now)
			assert.ErrorIs(t, err, ErrInvalidSignature, header)
		}
	})

	t.Run("rejects when no secret is configured", func(t *testing.T) {
		header := SignPayload(secret, payload, now)
		err := verifySignature("", payload, header, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}
