package credit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBundle(t *testing.T) {
	t.Run("starts with all credits available", func(t *testing.T) {
		b, err := NewBundle(uuid.New(), uuid.New(), 10, 45000, time.Now())
		require.NoError(t, err)

		assert.Equal(t, int32(10), b.BundleSize())
		assert.Equal(t, int32(10), b.CreditsLeft())
		assert.False(t, b.Exhausted())
	})

	t.Run("rejects non-positive size", func(t *testing.T) {
		_, err := NewBundle(uuid.New(), uuid.New(), 0, 100, time.Now())
		assert.ErrorIs(t, err, ErrInvalidBundleSize)
	})
}

func TestConsume(t *testing.T) {
	b, err := NewBundle(uuid.New(), uuid.New(), 2, 9000, time.Now())
	require.NoError(t, err)

	require.NoError(t, b.Consume())
	require.NoError(t, b.Consume())
	assert.True(t, b.Exhausted())
	assert.Equal(t, int32(0), b.CreditsLeft())

	// Never goes negative.
	assert.ErrorIs(t, b.Consume(), ErrExhausted)
	assert.Equal(t, int32(0), b.CreditsLeft())
}

func TestReconstruct(t *testing.T) {
	id := uuid.New()

	t.Run("accepts values inside the invariant", func(t *testing.T) {
		b, err := Reconstruct(id, uuid.New(), uuid.New(), 5, 3, 20000, time.Now())
		require.NoError(t, err)
		assert.Equal(t, int32(3), b.CreditsLeft())
	})

	t.Run("rejects credits above bundle size", func(t *testing.T) {
		_, err := Reconstruct(id, uuid.New(), uuid.New(), 5, 6, 20000, time.Now())
		assert.ErrorIs(t, err, ErrCreditsOutOfRange)
	})

	t.Run("rejects negative credits", func(t *testing.T) {
		_, err := Reconstruct(id, uuid.New(), uuid.New(), 5, -1, 20000, time.Now())
		assert.ErrorIs(t, err, ErrCreditsOutOfRange)
	})
}
