package writerepo

import (
	"context"
	"time"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"

	"github.com/google/uuid"
)

// NotificationRepository writes user-visible in-app notifications.
type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(dbtx db.DBTX) *NotificationRepository {
	return &NotificationRepository{db: dbtx}
}

func (r *NotificationRepository) Insert(ctx context.Context, userID uuid.UUID, kind, title, body string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO notifications (id, user_id, kind, title, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		uuid.New(), userID, kind, title, body,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert notification", err)
	}
	return nil
}

// OutboxRepository stores fire-and-forget jobs next to the business rows
// they belong to, so enqueueing commits or rolls back with them.
type OutboxRepository struct {
	db db.DBTX
}

func NewOutboxRepository(dbtx db.DBTX) *OutboxRepository {
	return &OutboxRepository{db: dbtx}
}

func (r *OutboxRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO notification_jobs (id, kind, topic, payload, run_at, attempts, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 0, 'queued', now(), now())`,
		uuid.New(), kind, topic, payload, runAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create outbox job", err)
	}
	return nil
}

// OutboxJob is a claimed job handed to the drain worker.
type OutboxJob struct {
	ID      uuid.UUID
	Kind    string
	Topic   string
	Payload []byte
}

const claimJobsSQL = `
UPDATE notification_jobs
SET status = 'processing', attempts = attempts + 1, updated_at = now()
WHERE id IN (
	SELECT id FROM notification_jobs
	WHERE status = 'queued' AND run_at <= now()
	ORDER BY run_at
	LIMIT $1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, kind, topic, payload`

// ClaimPending grabs due jobs for one drain pass. SKIP LOCKED keeps
// concurrent workers from double-claiming.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int32) ([]OutboxJob, error) {
	rows, err := r.db.Query(ctx, claimJobsSQL, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim outbox jobs", err)
	}
	defer rows.Close()

	var jobs []OutboxJob
	for rows.Next() {
		var job OutboxJob
		if err := rows.Scan(&job.ID, &job.Kind, &job.Topic, &job.Payload); err != nil {
			return nil, infra.WrapRepoErr("failed to scan outbox job", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read outbox jobs", err)
	}
	return jobs, nil
}

func (r *OutboxRepository) MarkDone(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notification_jobs SET status = 'done', updated_at = now() WHERE id = $1`,
		jobID,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark outbox job done", err)
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, jobID uuid.UUID, lastError string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notification_jobs
		 SET status = CASE WHEN attempts >= 5 THEN 'dead' ELSE 'queued' END,
			 last_error = $2, updated_at = now()
		 WHERE id = $1`,
		jobID, lastError,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark outbox job failed", err)
	}
	return nil
}
