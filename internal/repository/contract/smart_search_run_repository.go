package contract

import (
	"context"

	"literature-search-be/internal/entity"
	"literature-search-be/internal/repository/specification"
)

type SmartSearchRunRepository interface {
	// Upsert creates the run or updates the one with the same user and session id.
	Upsert(ctx context.Context, run *entity.SmartSearchRun) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SmartSearchRun, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SmartSearchRun, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
