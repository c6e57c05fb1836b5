package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"settlement-core/internal/domain/booking"
	"settlement-core/internal/infra/db"
	"settlement-core/internal/infra/readstore"
	"settlement-core/internal/infra/writerepo"
	"settlement-core/internal/pkg/errs"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool *pgxpool.Pool
}

func NewPostgresUoW(pool *pgxpool.Pool) shared.UnitOfWork {
	return &PostgresUoW{pool: pool}
}

// ReadCommitted prevents dirty reads while allowing concurrent writes
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (u *PostgresUoW) Reads() shared.CommandReads {
	return &commandReads{dbtx: u.pool}
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{dbtx: pgxTx}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries {
				slog.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	// Mask high bit so the conversion stays positive
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- Intentionally safe conversion after masking
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx db.DBTX

	// Lazy-initialized repositories
	bookingRepo        shared.BookingRepository
	creditRepo         shared.CreditRepository
	ledgerRepo         shared.LedgerRepository
	orderRepo          shared.OrderRepository
	providerRepo       shared.ProviderRepository
	processedEventRepo shared.ProcessedEventRepository
	disputeRepo        shared.DisputeRepository
	notificationRepo   shared.NotificationRepository
	outboxRepo         shared.OutboxRepository
	commandReads       shared.CommandReads
}

func (t *pgTx) Bookings() shared.BookingRepository {
	if t.bookingRepo == nil {
		t.bookingRepo = writerepo.NewBookingRepository(t.dbtx)
	}
	return t.bookingRepo
}

func (t *pgTx) Credits() shared.CreditRepository {
	if t.creditRepo == nil {
		t.creditRepo = writerepo.NewCreditRepository(t.dbtx)
	}
	return t.creditRepo
}

func (t *pgTx) Ledger() shared.LedgerRepository {
	if t.ledgerRepo == nil {
		t.ledgerRepo = writerepo.NewLedgerRepository(t.dbtx)
	}
	return t.ledgerRepo
}

func (t *pgTx) Orders() shared.OrderRepository {
	if t.orderRepo == nil {
		t.orderRepo = writerepo.NewOrderRepository(t.dbtx)
	}
	return t.orderRepo
}

func (t *pgTx) Providers() shared.ProviderRepository {
	if t.providerRepo == nil {
		t.providerRepo = writerepo.NewProviderRepository(t.dbtx)
	}
	return t.providerRepo
}

func (t *pgTx) ProcessedEvents() shared.ProcessedEventRepository {
	if t.processedEventRepo == nil {
		t.processedEventRepo = writerepo.NewProcessedEventRepository(t.dbtx)
	}
	return t.processedEventRepo
}

func (t *pgTx) Disputes() shared.DisputeRepository {
	if t.disputeRepo == nil {
		t.disputeRepo = writerepo.NewDisputeRepository(t.dbtx)
	}
	return t.disputeRepo
}

func (t *pgTx) Notifications() shared.NotificationRepository {
	if t.notificationRepo == nil {
		t.notificationRepo = writerepo.NewNotificationRepository(t.dbtx)
	}
	return t.notificationRepo
}

func (t *pgTx) Outbox() shared.OutboxRepository {
	if t.outboxRepo == nil {
		t.outboxRepo = writerepo.NewOutboxRepository(t.dbtx)
	}
	return t.outboxRepo
}

func (t *pgTx) Reads() shared.CommandReads {
	if t.commandReads == nil {
		t.commandReads = &commandReads{dbtx: t.dbtx}
	}
	return t.commandReads
}

type commandReads struct {
	dbtx db.DBTX

	// Lazy-initialized readstores
	bookingStore  *readstore.BookingReadStore
	providerStore *readstore.ProviderReadStore
	orderStore    *readstore.OrderReadStore
	disputeStore  *readstore.DisputeReadStore
	userStore     *readstore.UserReadStore
}

func (r *commandReads) bookings() *readstore.BookingReadStore {
	if r.bookingStore == nil {
		r.bookingStore = readstore.NewBookingReadStore(r.dbtx)
	}
	return r.bookingStore
}

func (r *commandReads) BookingByID(ctx context.Context, id uuid.UUID) (*shared.BookingSnapshot, error) {
	row, err := r.bookings().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot := &shared.BookingSnapshot{
		ID:                row.ID,
		BuyerID:           row.BuyerID,
		ProviderID:        row.ProviderID,
		Status:            booking.Status(row.Status),
		PaymentStatus:     booking.PaymentStatus(row.PaymentStatus),
		UsedCredit:        row.UsedCredit,
		SessionAt:         row.SessionAt,
		CheckoutSessionID: row.CheckoutSessionID,
		NetCents:          row.NetCents,
	}
	return snapshot, nil
}

func (r *commandReads) ProviderByID(ctx context.Context, id uuid.UUID) (*shared.ProviderSnapshot, error) {
	if r.providerStore == nil {
		r.providerStore = readstore.NewProviderReadStore(r.dbtx)
	}

	return r.providerStore.FindByID(ctx, id)
}

func (r *commandReads) OrderByID(ctx context.Context, id uuid.UUID) (*shared.OrderSnapshot, error) {
	if r.orderStore == nil {
		r.orderStore = readstore.NewOrderReadStore(r.dbtx)
	}

	return r.orderStore.FindByID(ctx, id)
}

func (r *commandReads) DisputeByID(ctx context.Context, id uuid.UUID) (*shared.DisputeSnapshot, error) {
	if r.disputeStore == nil {
		r.disputeStore = readstore.NewDisputeReadStore(r.dbtx)
	}

	return r.disputeStore.FindByID(ctx, id)
}

func (r *commandReads) UserContactByID(ctx context.Context, id uuid.UUID) (*shared.UserContact, error) {
	if r.userStore == nil {
		r.userStore = readstore.NewUserReadStore(r.dbtx)
	}

	return r.userStore.ContactByID(ctx, id)
}

func (r *commandReads) DueReminders(ctx context.Context, lead booking.ReminderLead, from, to time.Time) ([]shared.ReminderTarget, error) {
	return r.bookings().DueReminders(ctx, lead, from, to)
}
