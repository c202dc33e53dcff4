package implementation

import (
	"context"
	"errors"

	"literature-search-be/internal/entity"
	"literature-search-be/internal/mapper"
	"literature-search-be/internal/model"
	"literature-search-be/internal/repository/contract"
	"literature-search-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SmartSearchRunRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SmartSearchRunMapper
}

func NewSmartSearchRunRepository(db *gorm.DB) contract.SmartSearchRunRepository {
	return &SmartSearchRunRepositoryImpl{
		db:     db,
		mapper: mapper.NewSmartSearchRunMapper(),
	}
}

func (r *SmartSearchRunRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SmartSearchRunRepositoryImpl) Upsert(ctx context.Context, run *entity.SmartSearchRun) error {
	m := r.mapper.ToModel(run)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"workflow_id", "question", "last_stage", "sources", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*run = *r.mapper.ToEntity(m)
	return nil
}

func (r *SmartSearchRunRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SmartSearchRun, error) {
	var m model.SmartSearchRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SmartSearchRunRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SmartSearchRun, error) {
	var models []*model.SmartSearchRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SmartSearchRunRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.SmartSearchRun{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
