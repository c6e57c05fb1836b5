package credit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidBundleSize = errors.New("bundle size must be positive")
	ErrCreditsOutOfRange = errors.New("credits_left outside [0, bundle_size]")
	ErrExhausted         = errors.New("bundle has no credits left")
)

// Bundle is a prepaid block of sessions bought by one buyer for one
// provider. Invariant: 0 <= creditsLeft <= bundleSize, always.
type Bundle struct {
	id          uuid.UUID
	buyerID     uuid.UUID
	providerID  uuid.UUID
	bundleSize  int32
	creditsLeft int32
	priceCents  int64
	purchasedAt time.Time
}

// NewBundle creates a freshly purchased bundle with all credits available.
func NewBundle(buyerID, providerID uuid.UUID, bundleSize int32, priceCents int64, purchasedAt time.Time) (*Bundle, error) {
	if bundleSize <= 0 {
		return nil, ErrInvalidBundleSize
	}
	return &Bundle{
		id:          uuid.New(),
		buyerID:     buyerID,
		providerID:  providerID,
		bundleSize:  bundleSize,
		creditsLeft: bundleSize,
		priceCents:  priceCents,
		purchasedAt: purchasedAt,
	}, nil
}

func Reconstruct(id, buyerID, providerID uuid.UUID, bundleSize, creditsLeft int32, priceCents int64, purchasedAt time.Time) (*Bundle, error) {
	if bundleSize <= 0 {
		return nil, ErrInvalidBundleSize
	}
	if creditsLeft < 0 || creditsLeft > bundleSize {
		return nil, ErrCreditsOutOfRange
	}
	return &Bundle{
		id:          id,
		buyerID:     buyerID,
		providerID:  providerID,
		bundleSize:  bundleSize,
		creditsLeft: creditsLeft,
		priceCents:  priceCents,
		purchasedAt: purchasedAt,
	}, nil
}

// Consume spends one credit. An exhausted bundle never goes negative and
// is never refilled.
func (b *Bundle) Consume() error {
	if b.creditsLeft <= 0 {
		return ErrExhausted
	}
	b.creditsLeft--
	return nil
}

func (b *Bundle) Exhausted() bool {
	return b.creditsLeft == 0
}

func (b *Bundle) ID() uuid.UUID          { return b.id }
func (b *Bundle) BuyerID() uuid.UUID     { return b.buyerID }
func (b *Bundle) ProviderID() uuid.UUID  { return b.providerID }
func (b *Bundle) BundleSize() int32      { return b.bundleSize }
func (b *Bundle) CreditsLeft() int32     { return b.creditsLeft }
func (b *Bundle) PriceCents() int64      { return b.priceCents }
func (b *Bundle) PurchasedAt() time.Time { return b.purchasedAt }
