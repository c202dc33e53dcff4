package contract

import (
	"context"

	"literature-search-be/internal/entity"

	"github.com/google/uuid"
)

type SearchPreferenceRepository interface {
	// FindByUserId returns nil, nil when the user never saved a selection.
	FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.SearchPreference, error)
	Upsert(ctx context.Context, pref *entity.SearchPreference) error
}
