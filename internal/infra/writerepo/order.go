package writerepo

import (
	"context"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"

	"github.com/google/uuid"
)

type OrderRepository struct {
	db db.DBTX
}

func NewOrderRepository(dbtx db.DBTX) *OrderRepository {
	return &OrderRepository{db: dbtx}
}

func (r *OrderRepository) MarkPaidIfPending(ctx context.Context, orderID uuid.UUID, chargeRef string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders
		 SET status = 'paid_pending_fulfillment', charge_id = $2, updated_at = now()
		 WHERE id = $1 AND status = 'pending'`,
		orderID, chargeRef,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark order paid", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OrderRepository) MarkRefunded(ctx context.Context, orderID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders
		 SET status = 'refunded', updated_at = now()
		 WHERE id = $1 AND status IN ('paid_pending_fulfillment', 'fulfilled')`,
		orderID,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark order refunded", err)
	}
	return tag.RowsAffected() == 1, nil
}
