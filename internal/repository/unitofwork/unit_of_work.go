package unitofwork

import (
	"context"

	"literature-search-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SearchPreferenceRepository() contract.SearchPreferenceRepository
	SmartSearchRunRepository() contract.SmartSearchRunRepository
}
