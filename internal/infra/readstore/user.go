package readstore

import (
	"context"

	"settlement-core/internal/infra"
	"settlement-core/internal/infra/db"
	"settlement-core/internal/usecase/shared"

	"github.com/google/uuid"
)

type UserReadStore struct {
	db db.DBTX
}

func NewUserReadStore(dbtx db.DBTX) *UserReadStore {
	return &UserReadStore{db: dbtx}
}

func (s *UserReadStore) ContactByID(ctx context.Context, id uuid.UUID) (*shared.UserContact, error) {
	var contact shared.UserContact
	err := s.db.QueryRow(ctx,
		`SELECT id, email, display_name FROM users WHERE id = $1`, id,
	).Scan(&contact.ID, &contact.Email, &contact.DisplayName)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user", err)
	}
	return &contact, nil
}
