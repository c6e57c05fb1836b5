package readstore

import (
	"context"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

type OrderReadStore struct {
	db db.DBTX
}

func NewOrderReadStore(dbtx db.DBTX) *OrderReadStore {
	return &OrderReadStore{db: dbtx}
}

const findOrderSQL = `
SELECT id, buyer_id, seller_id, status, subtotal_cents, platform_fee_cents, digital
FROM orders
WHERE id = $1`

func (s *OrderReadStore) FindByID(ctx context.Context, id uuid.UUID) (*shared.OrderSnapshot, error) {
	var snap shared.OrderSnapshot
	err := s.db.QueryRow(ctx, findOrderSQL, id).Scan(
		&snap.ID, &snap.BuyerID, &snap.SellerID,
		&snap.Status, &snap.SubtotalCents, &snap.PlatformFeeCents, &snap.Digital,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("order not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find order", err)
	}
	return &snap, nil
}
