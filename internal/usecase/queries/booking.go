package queries

import (
	"context"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/readstore"
	"settlement-core/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrBookingNotFound = errs.New("booking not found")
	ErrForbidden       = errs.New("not allowed to view this booking")
	ErrQueryFailed     = errs.New("query failed")
)

// BookingView re-exported for handler responses.
type BookingView = readstore.BookingView

type BookingQueries interface {
	// GetByID returns one booking. Non-admin callers only see their own.
	GetByID(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID) (*BookingView, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]BookingView, error)
}

type bookingQueriesImpl struct {
	store *readstore.BookingReadStore
}

func NewBookingQueries(pool *pgxpool.Pool) BookingQueries {
	return &bookingQueriesImpl{store: readstore.NewBookingReadStore(pool)}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID) (*BookingView, error) {
	view, err := q.store.ViewByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	if !isAdmin && view.BuyerID != actorID {
		return nil, ErrForbidden
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]BookingView, error) {
	views, err := q.store.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, errs.Mark(err, ErrQueryFailed)
	}
	return views, nil
}
