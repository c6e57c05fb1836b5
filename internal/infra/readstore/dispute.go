package readstore

import (
	"context"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

type DisputeReadStore struct {
	db db.DBTX
}

func NewDisputeReadStore(dbtx db.DBTX) *DisputeReadStore {
	return &DisputeReadStore{db: dbtx}
}

const findDisputeSQL = `
SELECT id, booking_id, order_id, claimant_id, respondent_id, amount_cents, status
FROM disputes
WHERE id = $1`

func (s *DisputeReadStore) FindByID(ctx context.Context, id uuid.UUID) (*shared.DisputeSnapshot, error) {
	var snap shared.DisputeSnapshot
	err := s.db.QueryRow(ctx, findDisputeSQL, id).Scan(
		&snap.ID, &snap.BookingID, &snap.OrderID,
		&snap.ClaimantID, &snap.RespondentID, &snap.AmountCents, &snap.Status,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("dispute not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find dispute", err)
	}
	return &snap, nil
}
