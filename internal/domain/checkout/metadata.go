// Package checkout models the correlation metadata stamped onto a hosted
// payment session at creation time and carried back verbatim on the
// completion webhook. The shape is a closed tagged union of the three
// things the platform sells; the webhook dispatches on it by type switch
// rather than by sniffing individual fields.
package checkout

import (
	"strconv"

	"settlement-core/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrUnknownKind = errs.New("unknown checkout kind")
	ErrBadMetadata = errs.New("malformed checkout metadata")
)

type Kind string

const (
	KindBundlePurchase   Kind = "bundle_purchase"
	KindSessionBooking   Kind = "session_booking"
	KindMarketplaceOrder Kind = "marketplace_order"
)

const (
	keyKind       = "checkout_kind"
	keyBuyerID    = "buyer_id"
	keyProviderID = "provider_id"
	keyBundleSize = "bundle_size"
	keyPriceCents = "price_cents"
	keyBookingID  = "booking_id"
	keyOrderID    = "order_id"
	keySellerID   = "seller_id"
)

// Metadata is sealed: only the three kinds below implement it.
type Metadata interface {
	Kind() Kind
	sealed()
}

// BundlePurchase buys a block of prepaid session credits.
type BundlePurchase struct {
	BuyerID    uuid.UUID
	ProviderID uuid.UUID
	BundleSize int32
	PriceCents int64
}

func (BundlePurchase) Kind() Kind { return KindBundlePurchase }
func (BundlePurchase) sealed()    {}

// SessionBooking pays for a single pending booking.
type SessionBooking struct {
	BookingID  uuid.UUID
	ProviderID uuid.UUID
}

func (SessionBooking) Kind() Kind { return KindSessionBooking }
func (SessionBooking) sealed()    {}

// MarketplaceOrder pays for a marketplace order (digital or physical).
type MarketplaceOrder struct {
	OrderID  uuid.UUID
	SellerID uuid.UUID
}

func (MarketplaceOrder) Kind() Kind { return KindMarketplaceOrder }
func (MarketplaceOrder) sealed()    {}

// Encode flattens metadata into the string map the gateway round-trips.
func Encode(md Metadata) map[string]string {
	out := map[string]string{keyKind: string(md.Kind())}
	switch m := md.(type) {
	case BundlePurchase:
		out[keyBuyerID] = m.BuyerID.String()
		out[keyProviderID] = m.ProviderID.String()
		out[keyBundleSize] = strconv.FormatInt(int64(m.BundleSize), 10)
		out[keyPriceCents] = strconv.FormatInt(m.PriceCents, 10)
	case SessionBooking:
		out[keyBookingID] = m.BookingID.String()
		out[keyProviderID] = m.ProviderID.String()
	case MarketplaceOrder:
		out[keyOrderID] = m.OrderID.String()
		out[keySellerID] = m.SellerID.String()
	}
	return out
}

// Decode parses the metadata map back into the union. Unknown or
// incomplete metadata is an error; webhook processing never guesses.
func Decode(values map[string]string) (Metadata, error) {
	switch Kind(values[keyKind]) {
	case KindBundlePurchase:
		buyerID, err := parseUUID(values, keyBuyerID)
		if err != nil {
			return nil, err
		}
		providerID, err := parseUUID(values, keyProviderID)
		if err != nil {
			return nil, err
		}
		size, err := parseInt(values, keyBundleSize)
		if err != nil {
			return nil, err
		}
		if size <= 0 {
			return nil, errs.Mark(errs.New("bundle_size must be positive"), ErrBadMetadata)
		}
		price, err := parseInt(values, keyPriceCents)
		if err != nil {
			return nil, err
		}
		return BundlePurchase{
			BuyerID:    buyerID,
			ProviderID: providerID,
			BundleSize: int32(size),
			PriceCents: price,
		}, nil

	case KindSessionBooking:
		bookingID, err := parseUUID(values, keyBookingID)
		if err != nil {
			return nil, err
		}
		providerID, err := parseUUID(values, keyProviderID)
		if err != nil {
			return nil, err
		}
		return SessionBooking{BookingID: bookingID, ProviderID: providerID}, nil

	case KindMarketplaceOrder:
		orderID, err := parseUUID(values, keyOrderID)
		if err != nil {
			return nil, err
		}
		sellerID, err := parseUUID(values, keySellerID)
		if err != nil {
			return nil, err
		}
		return MarketplaceOrder{OrderID: orderID, SellerID: sellerID}, nil

	default:
		return nil, ErrUnknownKind
	}
}

func parseUUID(values map[string]string, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(values[key])
	if err != nil {
		return uuid.Nil, errs.Mark(errs.Wrap(err, "metadata key "+key), ErrBadMetadata)
	}
	return id, nil
}

func parseInt(values map[string]string, key string) (int64, error) {
	n, err := strconv.ParseInt(values[key], 10, 64)
	if err != nil {
		return 0, errs.Mark(errs.Wrap(err, "metadata key "+key), ErrBadMetadata)
	}
	return n, nil
}
