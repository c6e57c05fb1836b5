package writerepo

import (
	"context"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"
)

type ProcessedEventRepository struct {
	db db.DBTX
}

func NewProcessedEventRepository(dbtx db.DBTX) *ProcessedEventRepository {
	return &ProcessedEventRepository{db: dbtx}
}

// TryInsert is the idempotency gate for webhook processing. The unique
// constraint on event_id decides the race; losing it (or replaying)
// reports false with no error.
func (r *ProcessedEventRepository) TryInsert(ctx context.Context, eventID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO processed_events (event_id, processed_at)
		 VALUES ($1, now())
		 ON CONFLICT (event_id) DO NOTHING`,
		eventID,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to record processed event", err)
	}
	return tag.RowsAffected() == 1, nil
}
