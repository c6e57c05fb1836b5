package writerepo

import (
	"context"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"
)

type ProviderRepository struct {
	db db.DBTX
}

func NewProviderRepository(dbtx db.DBTX) *ProviderRepository {
	return &ProviderRepository{db: dbtx}
}

// UpsertPayoutStatus applies capability flags from an account event.
// Idempotent by construction: the same event always writes the same
// values. An account id we have never onboarded is ignored.
func (r *ProviderRepository) UpsertPayoutStatus(ctx context.Context, gatewayAccountID string, payoutEnabled, onboardingRequired bool) error {
	_, err := r.db.Exec(ctx,
		`UPDATE providers
		 SET payout_enabled = $2, onboarding_required = $3, updated_at = now()
		 WHERE gateway_account_id = $1`,
		gatewayAccountID, payoutEnabled, onboardingRequired,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to upsert provider payout status", err)
	}
	return nil
}
