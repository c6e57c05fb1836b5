package readstore

import (
	"context"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

type ProviderReadStore struct {
	db db.DBTX
}

func NewProviderReadStore(dbtx db.DBTX) *ProviderReadStore {
	return &ProviderReadStore{db: dbtx}
}

const findProviderSQL = `
SELECT id, display_name, COALESCE(gateway_account_id, ''),
	payout_enabled, onboarding_required,
	meeting_provider, COALESCE(meeting_base_url, ''), session_price_cents
FROM providers
WHERE id = $1`

func (s *ProviderReadStore) FindByID(ctx context.Context, id uuid.UUID) (*shared.ProviderSnapshot, error) {
	var snap shared.ProviderSnapshot
	err := s.db.QueryRow(ctx, findProviderSQL, id).Scan(
		&snap.ID, &snap.DisplayName, &snap.GatewayAccountID,
		&snap.PayoutEnabled, &snap.OnboardingRequired,
		&snap.MeetingProvider, &snap.MeetingBaseURL, &snap.SessionPriceCents,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("provider not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find provider", err)
	}
	return &snap, nil
}
