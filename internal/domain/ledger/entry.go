package ledger

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrZeroAmount  = errors.New("ledger amount cannot be zero")
	ErrWrongSign   = errors.New("ledger amount has the wrong sign for its type")
	ErrInvalidType = errors.New("invalid ledger entry type")
)

type EntryType string

const (
	TypeSale       EntryType = "sale"
	TypeCommission EntryType = "commission"
	TypeRefund     EntryType = "refund"
)

func (t EntryType) IsValid() bool {
	switch t {
	case TypeSale, TypeCommission, TypeRefund:
		return true
	default:
		return false
	}
}

// Entry is one signed monetary record attributed to a seller for an order.
// Sales are positive, commissions and refunds negative; the entries of one
// order sum to the seller's net.
type Entry struct {
	ID          uuid.UUID
	SellerID    uuid.UUID
	OrderID     uuid.UUID
	Type        EntryType
	AmountCents int64
	Note        string
}

func newEntry(sellerID, orderID uuid.UUID, t EntryType, amountCents int64, note string) (Entry, error) {
	if amountCents == 0 {
		return Entry{}, ErrZeroAmount
	}
	switch t {
	case TypeSale:
		if amountCents < 0 {
			return Entry{}, ErrWrongSign
		}
	case TypeCommission, TypeRefund:
		if amountCents > 0 {
			return Entry{}, ErrWrongSign
		}
	default:
		return Entry{}, ErrInvalidType
	}
	return Entry{
		ID:          uuid.New(),
		SellerID:    sellerID,
		OrderID:     orderID,
		Type:        t,
		AmountCents: amountCents,
		Note:        note,
	}, nil
}

// NewSale credits the seller with the order's gross subtotal; the
// commission entry nets it down.
func NewSale(sellerID, orderID uuid.UUID, subtotalCents int64, note string) (Entry, error) {
	return newEntry(sellerID, orderID, TypeSale, subtotalCents, note)
}

// NewCommission records the platform fee taken out of the order.
func NewCommission(sellerID, orderID uuid.UUID, feeCents int64, note string) (Entry, error) {
	return newEntry(sellerID, orderID, TypeCommission, -feeCents, note)
}

// NewRefund negates a previously settled amount.
func NewRefund(sellerID, orderID uuid.UUID, amountCents int64, note string) (Entry, error) {
	return newEntry(sellerID, orderID, TypeRefund, -amountCents, note)
}

// Sum totals a set of entries; for a fully settled order this equals
// subtotal minus platform fee.
func Sum(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.AmountCents
	}
	return total
}

// Balance is a seller's running position. It only ever moves as a
// consequence of ledger entry writes.
type Balance struct {
	SellerID       uuid.UUID
	AvailableCents int64
	OnHoldCents    int64
}
