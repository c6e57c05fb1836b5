package writerepo

import (
	"context"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"

	"github.com/google/uuid"
)

type DisputeRepository struct {
	db db.DBTX
}

func NewDisputeRepository(dbtx db.DBTX) *DisputeRepository {
	return &DisputeRepository{db: dbtx}
}

func (r *DisputeRepository) ResolveIfOpen(ctx context.Context, disputeID uuid.UUID, status, note string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE disputes
		 SET status = $2, resolution_note = $3, resolved_at = now()
		 WHERE id = $1 AND status = 'open'`,
		disputeID, status, note,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to resolve dispute", err)
	}
	return tag.RowsAffected() == 1, nil
}
