package writerepo

import (
	"context"

	"settlement-core/internal/domain/ledger"
	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"

	"github.com/google/uuid"
)

type LedgerRepository struct {
	db db.DBTX
}

func NewLedgerRepository(dbtx db.DBTX) *LedgerRepository {
	return &LedgerRepository{db: dbtx}
}

const insertEntrySQL = `
INSERT INTO ledger_entries (id, seller_id, order_id, entry_type, amount_cents, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`

func (r *LedgerRepository) InsertEntries(ctx context.Context, entries []ledger.Entry) error {
	for _, e := range entries {
		_, err := r.db.Exec(ctx, insertEntrySQL,
			e.ID, e.SellerID, e.OrderID, string(e.Type), e.AmountCents, e.Note,
		)
		if err != nil {
			return infra.WrapRepoErr("failed to insert ledger entry", err)
		}
	}
	return nil
}

const upsertBalanceSQL = `
INSERT INTO seller_balances (seller_id, available_cents, on_hold_cents, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (seller_id) DO UPDATE
SET available_cents = seller_balances.available_cents + EXCLUDED.available_cents,
	on_hold_cents = seller_balances.on_hold_cents + EXCLUDED.on_hold_cents,
	updated_at = now()`

func (r *LedgerRepository) ApplyBalanceDelta(ctx context.Context, sellerID uuid.UUID, availableDelta, onHoldDelta int64) error {
	_, err := r.db.Exec(ctx, upsertBalanceSQL, sellerID, availableDelta, onHoldDelta)
	if err != nil {
		return infra.WrapRepoErr("failed to apply seller balance delta", err)
	}
	return nil
}
