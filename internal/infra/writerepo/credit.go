package writerepo

import (
	"context"

	"settlement-core/internal/domain/credit"
	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

type CreditRepository struct {
	db db.DBTX
}

func NewCreditRepository(dbtx db.DBTX) *CreditRepository {
	return &CreditRepository{db: dbtx}
}

// Oldest bundle first (FIFO by purchase time). SKIP LOCKED makes two
// concurrent requests against one remaining credit resolve to exactly one
// winner; the loser sees no row and takes the payment path.
const consumeOldestSQL = `
UPDATE credit_bundles
SET credits_left = credits_left - 1
WHERE id = (
	SELECT id FROM credit_bundles
	WHERE buyer_id = $1 AND provider_id = $2 AND credits_left > 0
	ORDER BY purchased_at, id
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, credits_left`

func (r *CreditRepository) ConsumeOldest(ctx context.Context, buyerID, providerID uuid.UUID) (*shared.CreditConsumption, error) {
	var consumption shared.CreditConsumption
	err := r.db.QueryRow(ctx, consumeOldestSQL, buyerID, providerID).
		Scan(&consumption.BundleID, &consumption.CreditsLeft)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("no credit available", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to consume credit", err)
	}
	return &consumption, nil
}

const insertBundleSQL = `
INSERT INTO credit_bundles (
	id, buyer_id, provider_id, bundle_size, credits_left, price_cents, purchased_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *CreditRepository) Insert(ctx context.Context, b *credit.Bundle) error {
	_, err := r.db.Exec(ctx, insertBundleSQL,
		b.ID(), b.BuyerID(), b.ProviderID(),
		b.BundleSize(), b.CreditsLeft(), b.PriceCents(), b.PurchasedAt(),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return infra.WrapRepoErr("credit bundle already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert credit bundle", err)
	}
	return nil
}
