package components

import (
	"settlement-core/internal/infra/uow"
	"settlement-core/internal/infra/writerepo"
	"settlement-core/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		uow.NewPostgresUoW,
		func(u shared.UnitOfWork) shared.CommandReads {
			return u.Reads()
		},
		// Pool-backed outbox repo for the drain worker; transactional
		// enqueueing goes through the unit of work instead.
		func(pool *pgxpool.Pool) *writerepo.OutboxRepository {
			return writerepo.NewOutboxRepository(pool)
		},
	),
)
